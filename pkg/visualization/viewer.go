package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"sliceframes/internal/models"
)

// Viewer renders planes of a volume stack as 16-bit grey images. Intensities
// are normalised over the minimum and maximum of the whole stack so that a
// rendered sequence keeps a constant contrast.
type Viewer struct {
	stack *models.VolumeStack

	// dimensions of the volume
	width  int
	height int
	depth  int

	// intensity range of the volume
	min float64
	max float64
}

// NewViewer creates a viewer over stack. All slices must share one shape.
func NewViewer(stack *models.VolumeStack) (*Viewer, error) {
	if stack == nil || stack.Depth() == 0 {
		return nil, fmt.Errorf("no slices to render: %w", models.ErrEmptyInput)
	}

	height, width := stack.Slices[0].Dims()
	v := &Viewer{
		stack:  stack,
		width:  width,
		height: height,
		depth:  stack.Depth(),
		min:    math.Inf(1),
		max:    math.Inf(-1),
	}

	for i, s := range stack.Slices {
		r, c := s.Dims()
		if r != height || c != width {
			return nil, &models.GeometryMismatchError{
				Index: i,
				Path:  stack.Source,
				Want:  image.Pt(width, height),
				Got:   image.Pt(c, r),
			}
		}
		v.min = math.Min(v.min, mat.Min(s))
		v.max = math.Max(v.max, mat.Max(s))
	}

	return v, nil
}

// Dims returns width, height and depth of the volume
func (v *Viewer) Dims() (int, int, int) {
	return v.width, v.height, v.depth
}

// gray maps a voxel value into the 16-bit range
func (v *Viewer) gray(value float64) color.Gray16 {
	if v.max <= v.min {
		return color.Gray16{}
	}
	n := (value - v.min) / (v.max - v.min)
	return color.Gray16{Y: uint16(math.Round(math.Max(0, math.Min(1, n)) * 65535))}
}

func (v *Viewer) at(x, y, z int) float64 {
	return v.stack.Slices[z].At(y, x)
}

// ExtractSlice extracts a 2D plane from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewGray16(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				img.SetGray16(z, y, v.gray(v.at(position, y, z)))
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, z, v.gray(v.at(x, position, z)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewGray16(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				img.SetGray16(x, y, v.gray(v.at(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return models.NewIOError("create", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = models.NewIOError("close", filename, cerr)
		}
	}()

	if err := png.Encode(file, img); err != nil {
		return models.NewIOError("write", filename, err)
	}
	return nil
}

// SaveSliceSequence extracts and saves every plane along the specified axis
// as slice_<axis>_NNN.png and returns the written paths in order
func (v *Viewer) SaveSliceSequence(axis string, outputDir string, progress func(done, total int)) ([]string, error) {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.width
	case "y", "Y":
		maxPos = v.height
	case "z", "Z":
		maxPos = v.depth
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, models.NewIOError("mkdir", outputDir, err)
	}

	paths := make([]string, 0, maxPos)
	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return nil, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return nil, err
		}
		paths = append(paths, filename)

		if progress != nil {
			progress(pos+1, maxPos)
		}
	}

	return paths, nil
}
