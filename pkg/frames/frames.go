// Package frames lists and decodes the image files that make up a frame sequence.
package frames

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sliceframes/internal/models"
)

// Order selects how file names are sorted into frame order
type Order string

const (
	// Lexical sorts file names byte-wise
	Lexical Order = "lexical"

	// Numeric sorts by the number formed from the digits of each file name,
	// ties are broken lexically
	Numeric Order = "numeric"
)

// ParseOrder converts a configuration string into an Order
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(s)) {
	case Lexical, "":
		return Lexical, nil
	case Numeric:
		return Numeric, nil
	}
	return "", fmt.Errorf("invalid order %q (must be %s or %s)", s, Lexical, Numeric)
}

// List returns the regular files of dir ending in suffix, sorted by order.
// The suffix comparison ignores case. An empty result is ErrEmptyInput.
func List(dir, suffix string, order Order) (*models.ImageSet, error) {
	return ListSuffixes(dir, []string{suffix}, order)
}

// ListSuffixes is List accepting any of several suffixes
func ListSuffixes(dir string, suffixes []string, order Order) (*models.ImageSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, models.NewIOError("read dir", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if hasSuffix(entry.Name(), suffixes) {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s: %w", strings.Join(suffixes, "/"), dir, models.ErrEmptyInput)
	}

	Sort(files, order)

	slog.Debug("listed frames", "dir", dir, "count", len(files), "order", string(order))

	return &models.ImageSet{Dir: dir, Files: files}, nil
}

func hasSuffix(name string, suffixes []string) bool {
	name = strings.ToLower(name)
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// Sort orders names in place
func Sort(names []string, order Order) {
	if order != Numeric {
		sort.Strings(names)
		return
	}
	sort.SliceStable(names, func(i, j int) bool {
		numI := extractNumber(names[i])
		numJ := extractNumber(names[j])
		if numI != numJ {
			return numI < numJ
		}
		return names[i] < names[j]
	})
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() == 0 {
		return 0
	}
	num, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return num
}

// Decode reads a PNG or JPEG image from path
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, models.NewIOError("open", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, models.NewIOError("decode", path, err)
	}
	return img, nil
}

// Load decodes the i-th image of set
func Load(set *models.ImageSet, i int) (*models.Frame, error) {
	path := set.Path(i)
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return &models.Frame{Image: img, Index: i, Path: path}, nil
}

// Geometry decodes the first frame of set and returns its size. Later frames
// are not inspected.
func Geometry(set *models.ImageSet) (image.Point, error) {
	if set == nil || set.Len() == 0 {
		return image.Point{}, fmt.Errorf("no frames: %w", models.ErrEmptyInput)
	}
	first, err := Load(set, 0)
	if err != nil {
		return image.Point{}, err
	}
	return first.Size(), nil
}
