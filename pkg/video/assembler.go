// Package video assembles an ordered image sequence into a video container.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"sliceframes/internal/models"
	"sliceframes/pkg/frames"
)

// Params holds the assembler parameters
type Params struct {
	// Output is the path of the container to create or overwrite
	Output string

	// Codec is the container four character code, only MJPG is supported
	Codec string

	// FPS is the frame rate written into the container
	FPS int

	// Quality is the JPEG quality used for every frame
	Quality int
}

// Result summarises a finished assembly
type Result struct {
	Output string
	Frames int
	Width  int
	Height int
	Bytes  int64
}

// ProgressCallback is called after every written frame
type ProgressCallback func(done, total int)

// Assembler writes the frames of an ImageSet into a container
type Assembler struct {
	params           *Params
	open             Opener
	progressCallback ProgressCallback
}

// NewAssembler creates an assembler writing MJPEG AVI files
func NewAssembler(params *Params) *Assembler {
	return &Assembler{
		params: params,
		open:   MJPEGOpener(params.Codec, params.FPS, params.Quality),
	}
}

// SetOpener replaces the container factory
func (a *Assembler) SetOpener(open Opener) {
	a.open = open
}

// SetProgressCallback sets a callback receiving per-frame progress
func (a *Assembler) SetProgressCallback(callback ProgressCallback) {
	a.progressCallback = callback
}

// Assemble writes every image of set, in order, as one frame of the output
// container. The first frame's size is authoritative: a later frame of a
// different size aborts with *models.GeometryMismatchError. On any error the
// partially written output is removed.
func (a *Assembler) Assemble(ctx context.Context, set *models.ImageSet) (res *Result, err error) {
	size, err := frames.Geometry(set)
	if err != nil {
		return nil, err
	}

	slog.Info("assembling video",
		"frames", set.Len(), "width", size.X, "height", size.Y,
		"fps", a.params.FPS, "output", a.params.Output)

	container, err := a.open(a.params.Output, size)
	if err != nil {
		return nil, err
	}

	closed := false
	defer func() {
		if !closed {
			if cerr := container.Close(); cerr != nil {
				slog.Debug("close after failure", "error", cerr)
			}
		}
		if err != nil {
			if rerr := os.Remove(a.params.Output); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				slog.Warn("failed to remove partial output", "path", a.params.Output, "error", rerr)
			}
		}
	}()

	total := set.Len()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := frames.Load(set, i)
		if err != nil {
			return nil, err
		}

		if got := frame.Size(); got != size {
			return nil, &models.GeometryMismatchError{Index: i, Path: frame.Path, Want: size, Got: got}
		}

		if err := container.WriteFrame(frame.Image); err != nil {
			return nil, fmt.Errorf("failed to write frame %d: %w", i, err)
		}

		if a.progressCallback != nil {
			a.progressCallback(i+1, total)
		}
	}

	closed = true
	if err := container.Close(); err != nil {
		return nil, err
	}

	res = &Result{
		Output: a.params.Output,
		Frames: total,
		Width:  size.X,
		Height: size.Y,
	}
	if info, statErr := os.Stat(a.params.Output); statErr == nil {
		res.Bytes = info.Size()
	}

	return res, nil
}
