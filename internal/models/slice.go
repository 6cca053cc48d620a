package models

import (
	"image"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// ImageSet is an ordered list of image files taken from a single directory
type ImageSet struct {
	// Dir is the directory the files were listed from
	Dir string

	// Files holds the file names (not paths) in frame order
	Files []string
}

// Len returns the number of images in the set
func (s *ImageSet) Len() int {
	return len(s.Files)
}

// Path returns the full path of the i-th image
func (s *ImageSet) Path(i int) string {
	return filepath.Join(s.Dir, s.Files[i])
}

// Frame represents a single decoded image of an ImageSet
type Frame struct {
	// Image is the decoded raster
	Image image.Image

	// Index is the position of this frame in the sequence
	Index int

	// Path is the file the frame was decoded from
	Path string
}

// Size returns the width and height of the frame as a point
func (f *Frame) Size() image.Point {
	return f.Image.Bounds().Size()
}

// VolumeStack represents a volumetric dataset held entirely in memory
type VolumeStack struct {
	// Slices holds one dense grid per layer, rows are the image rows
	Slices []*mat.Dense

	// Source is the file or directory the stack was loaded from
	Source string
}

// Depth returns the number of slices in the stack
func (v *VolumeStack) Depth() int {
	return len(v.Slices)
}

// LayerHeader is the six-field header line of a layer file
type LayerHeader struct {
	Width  int
	Height int
	Flag1  int
	Flag2  int
	Min    float64
	Max    float64
}

// LayerRecord is the parsed content of one layer file
type LayerRecord struct {
	Header LayerHeader

	// Rows holds the grid values in row-major order as written
	Rows [][]float64
}
