package models

import (
	"errors"
	"fmt"
	"image"
)

// ErrEmptyInput is returned when a directory or stack holds nothing to process
var ErrEmptyInput = errors.New("empty input")

// IOError reports a failed open, read or write on an input or output path
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError wraps err unless it is nil
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// GeometryMismatchError reports a frame or slice whose size differs from the
// first one in its sequence
type GeometryMismatchError struct {
	Index int
	Path  string
	Want  image.Point
	Got   image.Point
}

func (e *GeometryMismatchError) Error() string {
	where := fmt.Sprintf("index %d", e.Index)
	if e.Path != "" {
		where = fmt.Sprintf("%s (%s)", where, e.Path)
	}
	return fmt.Sprintf("geometry mismatch at %s: expected %dx%d, got %dx%d",
		where, e.Want.X, e.Want.Y, e.Got.X, e.Got.Y)
}
