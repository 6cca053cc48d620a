package layers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"sliceframes/internal/models"
)

// ManifestEntry describes one written layer file
type ManifestEntry struct {
	Index  int     `parquet:"index"`
	File   string  `parquet:"file"`
	Width  int     `parquet:"width"`
	Height int     `parquet:"height"`
	Min    float64 `parquet:"min"`
	Max    float64 `parquet:"max"`
	Mean   float64 `parquet:"mean"`
	StdDev float64 `parquet:"std_dev"`
}

// NewManifestEntry computes the statistics of grid
func NewManifestEntry(index int, file string, grid *mat.Dense) ManifestEntry {
	rows, cols := grid.Dims()
	values := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		values = append(values, grid.RawRowView(i)...)
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}

	return ManifestEntry{
		Index:  index,
		File:   file,
		Width:  cols,
		Height: rows,
		Min:    mat.Min(grid),
		Max:    mat.Max(grid),
		Mean:   mean,
		StdDev: std,
	}
}

// WriteManifest writes entries to a Parquet file at path
func WriteManifest(path string, entries []ManifestEntry) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return models.NewIOError("mkdir", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return models.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = models.NewIOError("close", path, cerr)
		}
	}()

	writer := parquet.NewGenericWriter[ManifestEntry](file)
	if _, err := writer.Write(entries); err != nil {
		return models.NewIOError("write", path, err)
	}
	if err := writer.Close(); err != nil {
		return models.NewIOError("write", path, err)
	}

	return nil
}

// ReadManifest reads all entries of a manifest file
func ReadManifest(path string) ([]ManifestEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, models.NewIOError("open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, models.NewIOError("stat", path, err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ManifestEntry](pf)
	defer reader.Close()

	entries := make([]ManifestEntry, 0, pf.NumRows())
	batch := make([]ManifestEntry, 128)
	for {
		n, err := reader.Read(batch)
		entries = append(entries, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
	}

	return entries, nil
}
