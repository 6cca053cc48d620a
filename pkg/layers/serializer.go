package layers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sliceframes/internal/models"
)

// Params holds the serializer parameters
type Params struct {
	// OutputDir receives one layer file per slice, it is created if missing
	OutputDir string

	// Header controls the header line of every layer file
	Header HeaderOptions

	// Manifest is an optional Parquet file receiving per-layer statistics
	Manifest string
}

// Result lists what a serializer run produced
type Result struct {
	Files    []string
	Manifest string
}

// ProgressCallback is called after every written layer
type ProgressCallback func(done, total int)

// Serializer writes every slice of a volume stack as a layer file
type Serializer struct {
	params           *Params
	progressCallback ProgressCallback
}

// NewSerializer creates a serializer with the provided parameters
func NewSerializer(params *Params) *Serializer {
	return &Serializer{params: params}
}

// SetProgressCallback sets a callback receiving per-layer progress
func (s *Serializer) SetProgressCallback(callback ProgressCallback) {
	s.progressCallback = callback
}

// Serialize writes slice i of stack to layer-{i+1}.txt in stack order. The
// first failure aborts the run; files already written are left in place.
func (s *Serializer) Serialize(ctx context.Context, stack *models.VolumeStack) (*Result, error) {
	if stack == nil || stack.Depth() == 0 {
		return nil, fmt.Errorf("no slices to serialize: %w", models.ErrEmptyInput)
	}

	dir := s.params.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, models.NewIOError("mkdir", dir, err)
	}

	total := stack.Depth()
	result := &Result{Files: make([]string, 0, total)}
	var entries []ManifestEntry
	if s.params.Manifest != "" {
		entries = make([]ManifestEntry, 0, total)
	}

	for i, grid := range stack.Slices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := WriteFile(dir, i+1, grid, s.params.Header)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		result.Files = append(result.Files, path)

		rows, cols := grid.Dims()
		slog.Debug("wrote layer", "file", path, "values", rows*cols)

		if entries != nil {
			entries = append(entries, NewManifestEntry(i+1, filepath.Base(path), grid))
		}

		if s.progressCallback != nil {
			s.progressCallback(i+1, total)
		}
	}

	if entries != nil {
		if err := WriteManifest(s.params.Manifest, entries); err != nil {
			return nil, err
		}
		result.Manifest = s.params.Manifest
	}

	slog.Info("serialized layers", "count", len(result.Files), "dir", dir)

	return result, nil
}
