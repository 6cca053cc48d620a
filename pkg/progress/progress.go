// Package progress renders a single-line textual progress bar.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// DefaultWidth is the number of cells in the bar
const DefaultWidth = 50

// Reporter draws "[#####-----] 50% (5/10)" and redraws it in place on terminals.
// On other writers only the final state is printed, once.
type Reporter struct {
	w           io.Writer
	width       int
	interactive bool
	last        int
	finished    bool
}

// New creates a reporter writing to w. A width below 1 selects DefaultWidth.
func New(w io.Writer, width int) *Reporter {
	if width < 1 {
		width = DefaultWidth
	}
	return &Reporter{
		w:           w,
		width:       width,
		interactive: isTerminal(w),
		last:        -1,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bar returns the bar for done out of total without writing it
func Bar(done, total, width int) string {
	percent := 0
	if total > 0 {
		percent = done * 100 / total
	}
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	filled := percent * width / 100

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("#", filled))
	b.WriteString(strings.Repeat("-", width-filled))
	b.WriteByte(']')
	fmt.Fprintf(&b, " %3d%% (%d/%d)", percent, done, total)
	return b.String()
}

// Update reports that done out of total items are complete
func (r *Reporter) Update(done, total int) {
	if r == nil || r.w == nil {
		return
	}
	if r.interactive {
		if done == r.last {
			return
		}
		r.last = done
		fmt.Fprintf(r.w, "\r%s", Bar(done, total, r.width))
		return
	}
	if done >= total && !r.finished {
		r.finished = true
		fmt.Fprintln(r.w, Bar(done, total, r.width))
	}
}

// Done ends the progress line and prints msg on its own line when not empty
func (r *Reporter) Done(msg string) {
	if r == nil || r.w == nil {
		return
	}
	if r.interactive && r.last >= 0 {
		fmt.Fprintln(r.w)
	}
	if msg != "" {
		fmt.Fprintln(r.w, msg)
	}
}
