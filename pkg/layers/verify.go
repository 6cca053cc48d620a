package layers

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"sliceframes/internal/models"
)

// Report summarises a directory of layer files
type Report struct {
	Files  []string
	Width  int
	Height int
	Min    float64
	Max    float64

	// ManifestEntries is the number of manifest rows checked, 0 without a manifest
	ManifestEntries int
}

// Verify reads layer-001.txt, layer-002.txt, ... from dir until the first
// missing index. Every header's min and max must match its body and all
// bodies must share one shape. When manifest is set, its entries must
// describe exactly the files found.
func Verify(dir, manifest string) (*Report, error) {
	report := &Report{Min: math.Inf(1), Max: math.Inf(-1)}
	var records []*models.LayerRecord

	for i := 1; ; i++ {
		path := filepath.Join(dir, FileName(i))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		} else if err != nil {
			return nil, models.NewIOError("stat", path, err)
		}

		record, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		if len(record.Rows) == 0 {
			return nil, fmt.Errorf("%s: no rows", path)
		}

		rows, cols := len(record.Rows), len(record.Rows[0])
		if i == 1 {
			report.Width, report.Height = cols, rows
		} else if cols != report.Width || rows != report.Height {
			return nil, &models.GeometryMismatchError{
				Index: i - 1,
				Path:  path,
				Want:  image.Pt(report.Width, report.Height),
				Got:   image.Pt(cols, rows),
			}
		}

		lo, hi := bodyRange(record.Rows)
		if lo != record.Header.Min || hi != record.Header.Max {
			return nil, fmt.Errorf("%s: header range [%v, %v] does not match body [%v, %v]",
				path, record.Header.Min, record.Header.Max, lo, hi)
		}
		report.Min = math.Min(report.Min, lo)
		report.Max = math.Max(report.Max, hi)

		report.Files = append(report.Files, path)
		records = append(records, record)
	}

	if len(report.Files) == 0 {
		return nil, fmt.Errorf("no layer files in %s: %w", dir, models.ErrEmptyInput)
	}

	if manifest != "" {
		entries, err := ReadManifest(manifest)
		if err != nil {
			return nil, err
		}
		if err := checkManifest(entries, report.Files, records); err != nil {
			return nil, fmt.Errorf("%s: %w", manifest, err)
		}
		report.ManifestEntries = len(entries)
	}

	return report, nil
}

func bodyRange(rows [][]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func checkManifest(entries []ManifestEntry, files []string, records []*models.LayerRecord) error {
	if len(entries) != len(files) {
		return fmt.Errorf("%d entries for %d layer files", len(entries), len(files))
	}

	for _, e := range entries {
		if e.Index < 1 || e.Index > len(files) {
			return fmt.Errorf("entry index %d out of range", e.Index)
		}
		i := e.Index - 1
		if e.File != filepath.Base(files[i]) {
			return fmt.Errorf("entry %d names %s, expected %s", e.Index, e.File, filepath.Base(files[i]))
		}

		r := records[i]
		if e.Height != len(r.Rows) || e.Width != len(r.Rows[0]) {
			return fmt.Errorf("entry %d: shape %dx%d, file has %dx%d",
				e.Index, e.Width, e.Height, len(r.Rows[0]), len(r.Rows))
		}
		if e.Min != r.Header.Min || e.Max != r.Header.Max {
			return fmt.Errorf("entry %d: range [%v, %v], file has [%v, %v]",
				e.Index, e.Min, e.Max, r.Header.Min, r.Header.Max)
		}
	}

	return nil
}
