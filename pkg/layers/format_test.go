package layers

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"sliceframes/internal/models"
)

// TestFormatDerivedHeader checks the reference 2x2 example byte for byte
func TestFormatDerivedHeader(t *testing.T) {
	grid := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	var buf bytes.Buffer
	if err := Format(&buf, grid, DefaultHeaderOptions()); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "2 2 1 1 1 4\n1 2\n3 4\n\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestFormatFixedHeader checks the constant 1600x160 header mode
func TestFormatFixedHeader(t *testing.T) {
	grid := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	opts := DefaultHeaderOptions()
	opts.Mode = Fixed

	var buf bytes.Buffer
	if err := Format(&buf, grid, opts); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "1600 160 1 1 1 6\n1 2\n3 4\n5 6\n\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestFormatRowsMatchShape verifies row and column counts follow the real
// grid rather than header constants
func TestFormatRowsMatchShape(t *testing.T) {
	rows, cols := 7, 13
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i%11) - 3
	}
	grid := mat.NewDense(rows, cols, data)

	for _, mode := range []HeaderMode{Derived, Fixed} {
		opts := DefaultHeaderOptions()
		opts.Mode = mode

		var buf bytes.Buffer
		if err := Format(&buf, grid, opts); err != nil {
			t.Fatalf("Format failed: %v", err)
		}

		record, err := Parse(&buf)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(record.Rows) != rows {
			t.Errorf("%s: expected %d rows, got %d", mode, rows, len(record.Rows))
		}
		for i, row := range record.Rows {
			if len(row) != cols {
				t.Errorf("%s: row %d has %d values, expected %d", mode, i, len(row), cols)
			}
		}
		if mode == Derived && (record.Header.Width != cols || record.Header.Height != rows) {
			t.Errorf("Derived header %dx%d, expected %dx%d",
				record.Header.Width, record.Header.Height, cols, rows)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{-4, "-4"},
		{0.5, "0.5"},
		{0.1, "0.1"},
		{1e21, "1000000000000000000000"},
		{1.0 / 3.0, "0.3333333333333333"},
		{65535, "65535"},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := map[int]string{
		1:    "layer-001.txt",
		42:   "layer-042.txt",
		999:  "layer-999.txt",
		1000: "layer-1000.txt",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%d) = %q, want %q", in, got, want)
		}
	}
}

// TestWriteFileUnwritableDir verifies a bad directory surfaces as an IOError
func TestWriteFileUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := WriteFile(blocker, 1, mat.NewDense(1, 1, []float64{1}), DefaultHeaderOptions())

	var ioErr *models.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected *models.IOError, got %v", err)
	}
}

// TestParseRejectsMalformed covers the parser's error paths
func TestParseRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":             "",
		"short header":      "2 2 1 1 1\n1 2\n\n",
		"bad header":        "two 2 1 1 1 4\n1 2\n3 4\n\n",
		"ragged":            "2 2 1 1 1 4\n1 2\n3\n\n",
		"bad value":         "2 2 1 1 1 4\n1 x\n\n",
		"unterminated":      "2 2 1 1 1 4\n1 2\n3 4\n",
		"content after end": "2 2 1 1 1 4\n1 2\n\n3 4\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(input)); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestParseHeaderMode(t *testing.T) {
	if m, err := ParseHeaderMode(""); err != nil || m != Derived {
		t.Errorf("Expected derived default, got %q, %v", m, err)
	}
	if m, err := ParseHeaderMode("fixed"); err != nil || m != Fixed {
		t.Errorf("Expected fixed, got %q, %v", m, err)
	}
	if _, err := ParseHeaderMode("legacy"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
