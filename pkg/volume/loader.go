// Package volume loads volumetric image stacks into memory as dense grids.
//
// Two sources are supported: a multi-page TIFF file, where every page is one
// slice, and a directory of PNG or JPEG slice images sorted by the number in
// their file names. TIFF pages may hold unsigned, signed or floating-point
// samples.
package volume

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"sliceframes/internal/models"
	"sliceframes/pkg/frames"
)

// SliceSuffixes are the image types accepted in a slice directory
var SliceSuffixes = []string{".png", ".jpg", ".jpeg"}

// Load reads a volume stack from a TIFF file or a directory of slice images.
// All slices must share the first slice's shape.
func Load(path string) (*models.VolumeStack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, models.NewIOError("stat", path, err)
	}

	var slices []*mat.Dense
	if info.IsDir() {
		slices, err = loadDir(path)
	} else {
		slices, err = loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if len(slices) == 0 {
		return nil, fmt.Errorf("no slices in %s: %w", path, models.ErrEmptyInput)
	}

	rows, cols := slices[0].Dims()
	for i, s := range slices[1:] {
		r, c := s.Dims()
		if r != rows || c != cols {
			return nil, &models.GeometryMismatchError{
				Index: i + 1,
				Path:  path,
				Want:  image.Pt(cols, rows),
				Got:   image.Pt(c, r),
			}
		}
	}

	slog.Info("loaded volume", "source", path, "slices", len(slices), "width", cols, "height", rows)

	return &models.VolumeStack{Slices: slices, Source: path}, nil
}

func loadFile(path string) ([]*mat.Dense, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
	default:
		return nil, fmt.Errorf("unsupported volume file %s (expected .tif or .tiff)", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewIOError("read", path, err)
	}

	slices, err := decodeTIFF(data)
	if err != nil {
		return nil, models.NewIOError("decode", path, err)
	}
	return slices, nil
}

func loadDir(dir string) ([]*mat.Dense, error) {
	set, err := frames.ListSuffixes(dir, SliceSuffixes, frames.Numeric)
	if err != nil {
		return nil, err
	}

	slices := make([]*mat.Dense, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		img, err := frames.Decode(set.Path(i))
		if err != nil {
			return nil, err
		}
		grid, err := imageToGrid(img)
		if err != nil {
			return nil, fmt.Errorf("slice %s: %w", set.Files[i], err)
		}
		slices = append(slices, grid)
	}
	return slices, nil
}

// imageToGrid converts an image into a rows x cols grid. Grey images keep
// their raw sample values, other images contribute their 16-bit luminance.
func imageToGrid(img image.Image) (*mat.Dense, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("empty image")
	}

	data := make([]float64, width*height)
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
				data[y*width+x] = float64(g.Y)
			}
		}
	}

	return mat.NewDense(height, width, data), nil
}
