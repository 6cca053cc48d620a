// Package layers serializes volume slices into plain-text layer files and
// reads them back.
//
// A layer file holds a header line
//
//	{width} {height} {flag1} {flag2} {min} {max}
//
// followed by one line per grid row, values separated by single spaces, and a
// trailing empty line. Values are written as the shortest decimal that
// round-trips the float64 value, without exponent notation, so integer data
// prints as "1" and fractional data as "0.25".
package layers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"sliceframes/internal/models"
)

// HeaderMode selects where the width and height header fields come from
type HeaderMode string

const (
	// Derived writes the real grid shape
	Derived HeaderMode = "derived"

	// Fixed writes FixedWidth and FixedHeight regardless of the grid shape,
	// for consumers that expect constant metadata
	Fixed HeaderMode = "fixed"
)

// ParseHeaderMode converts a configuration string into a HeaderMode
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch HeaderMode(s) {
	case Derived, "":
		return Derived, nil
	case Fixed:
		return Fixed, nil
	}
	return "", fmt.Errorf("invalid header mode %q (must be %s or %s)", s, Derived, Fixed)
}

// HeaderOptions controls the first line of a layer file
type HeaderOptions struct {
	Mode        HeaderMode
	FixedWidth  int
	FixedHeight int
	Flag1       int
	Flag2       int
}

// DefaultHeaderOptions returns derived dimensions with both flags set to 1
func DefaultHeaderOptions() HeaderOptions {
	return HeaderOptions{
		Mode:        Derived,
		FixedWidth:  1600,
		FixedHeight: 160,
		Flag1:       1,
		Flag2:       1,
	}
}

// FileName returns the name of the layer file for a 1-based index
func FileName(index int) string {
	return fmt.Sprintf("layer-%03d.txt", index)
}

// FormatValue renders one grid value
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Header computes the header of grid. Min and max always cover the whole grid.
func Header(grid *mat.Dense, opts HeaderOptions) models.LayerHeader {
	rows, cols := grid.Dims()
	h := models.LayerHeader{
		Width:  cols,
		Height: rows,
		Flag1:  opts.Flag1,
		Flag2:  opts.Flag2,
		Min:    mat.Min(grid),
		Max:    mat.Max(grid),
	}
	if opts.Mode == Fixed {
		h.Width = opts.FixedWidth
		h.Height = opts.FixedHeight
	}
	return h
}

// Format writes grid to w in the layer file format
func Format(w io.Writer, grid *mat.Dense, opts HeaderOptions) error {
	bw := bufio.NewWriter(w)

	h := Header(grid, opts)
	fmt.Fprintf(bw, "%d %d %d %d %s %s\n",
		h.Width, h.Height, h.Flag1, h.Flag2, FormatValue(h.Min), FormatValue(h.Max))

	rows, _ := grid.Dims()
	var num []byte
	for i := 0; i < rows; i++ {
		for j, v := range grid.RawRowView(i) {
			if j > 0 {
				bw.WriteByte(' ')
			}
			num = strconv.AppendFloat(num[:0], v, 'f', -1, 64)
			bw.Write(num)
		}
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')

	return bw.Flush()
}

// WriteFile writes grid as FileName(index) inside dir and returns its path.
// The file is always closed; a failed close is reported.
func WriteFile(dir string, index int, grid *mat.Dense, opts HeaderOptions) (path string, err error) {
	path = filepath.Join(dir, FileName(index))

	file, err := os.Create(path)
	if err != nil {
		return "", models.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = models.NewIOError("close", path, cerr)
		}
	}()

	if err := Format(file, grid, opts); err != nil {
		return "", models.NewIOError("write", path, err)
	}

	return path, nil
}
