package volume

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"sliceframes/internal/models"
	"sliceframes/pkg/layers"
)

func int16Strip(values ...int16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func float32Strip(values ...float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func float64Strip(values ...float64) []byte {
	b := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}

func writeTIFF(t *testing.T, name string, pages ...rawPage) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buildTIFF(pages), 0644); err != nil {
		t.Fatalf("Failed to write tiff: %v", err)
	}
	return path
}

func checkSlice(t *testing.T, stack *models.VolumeStack, z int, want [][]float64) {
	t.Helper()
	rows, cols := stack.Slices[z].Dims()
	if rows != len(want) || cols != len(want[0]) {
		t.Fatalf("Slice %d: expected %dx%d, got %dx%d", z, len(want), len(want[0]), rows, cols)
	}
	for y, row := range want {
		for x, v := range row {
			if got := stack.Slices[z].At(y, x); got != v {
				t.Errorf("Slice %d (%d,%d): expected %v, got %v", z, y, x, v, got)
			}
		}
	}
}

// TestLoadSignedAndFloatPages verifies signed and floating-point samples keep their values
func TestLoadSignedAndFloatPages(t *testing.T) {
	var deflated bytes.Buffer
	zw := zlib.NewWriter(&deflated)
	zw.Write(float64Strip(-1e-3, 12.5, 0, -4096.25))
	zw.Close()

	tests := []struct {
		name string
		page rawPage
		want [][]float64
	}{
		{
			name: "int8",
			page: rawPage{width: 2, height: 2, bits: 8, format: 2, strip: []byte{0xfd, 1, 2, 0x80}},
			want: [][]float64{{-3, 1}, {2, -128}},
		},
		{
			name: "int16",
			page: rawPage{width: 2, height: 2, bits: 16, format: 2, strip: int16Strip(-3, 1, 2, 4)},
			want: [][]float64{{-3, 1}, {2, 4}},
		},
		{
			name: "int16 horizontal predictor",
			page: rawPage{width: 4, height: 2, bits: 16, format: 2, predictor: 2,
				strip: int16Strip(-3, 4, 1, 2, 10, -20, 10, 5)},
			want: [][]float64{{-3, 1, 2, 4}, {10, -10, 0, 5}},
		},
		{
			name: "float32",
			page: rawPage{width: 2, height: 2, bits: 32, format: 3, strip: float32Strip(-0.5, 0.25, 1.5, 2)},
			want: [][]float64{{-0.5, 0.25}, {1.5, 2}},
		},
		{
			name: "float64 deflate",
			page: rawPage{width: 2, height: 2, bits: 64, format: 3, compression: 8, strip: deflated.Bytes()},
			want: [][]float64{{-1e-3, 12.5}, {0, -4096.25}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := Load(writeTIFF(t, "detrended.tiff", tt.page))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if stack.Depth() != 1 {
				t.Fatalf("Expected 1 slice, got %d", stack.Depth())
			}
			checkSlice(t, stack, 0, tt.want)
		})
	}
}

// TestLoadMultiPageFloat verifies every float page becomes one slice
func TestLoadMultiPageFloat(t *testing.T) {
	path := writeTIFF(t, "stack.tif",
		rawPage{width: 3, height: 1, bits: 32, format: 3, strip: float32Strip(-1, 0, 1)},
		rawPage{width: 3, height: 1, bits: 32, format: 3, strip: float32Strip(0.5, 0.75, -0.125)},
	)

	stack, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stack.Depth() != 2 {
		t.Fatalf("Expected 2 slices, got %d", stack.Depth())
	}
	checkSlice(t, stack, 0, [][]float64{{-1, 0, 1}})
	checkSlice(t, stack, 1, [][]float64{{0.5, 0.75, -0.125}})
}

// TestLoadRejectsUnsupportedPages covers layouts the raw sample reader refuses
func TestLoadRejectsUnsupportedPages(t *testing.T) {
	tests := []struct {
		name string
		page rawPage
	}{
		{"float16", rawPage{width: 2, height: 1, bits: 16, format: 3, strip: []byte{0, 0, 0, 0}}},
		{"jpeg compression", rawPage{width: 2, height: 1, bits: 16, format: 2, compression: 7, strip: int16Strip(1, 2)}},
		{"float predictor", rawPage{width: 2, height: 1, bits: 32, format: 3, predictor: 3, strip: float32Strip(1, 2)}},
		{"short strip", rawPage{width: 2, height: 2, bits: 32, format: 3, strip: float32Strip(1, 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTIFF(t, "bad.tif", tt.page))
			var ioErr *models.IOError
			if !errors.As(err, &ioErr) {
				t.Errorf("Expected *models.IOError, got %v", err)
			}
		})
	}
}

// TestSerializeFloatVolume writes layer files from a float stack and reads them back
func TestSerializeFloatVolume(t *testing.T) {
	path := writeTIFF(t, "detrended.tiff",
		rawPage{width: 2, height: 2, bits: 32, format: 3, strip: float32Strip(-0.5, 0.25, 1.5, 2)},
		rawPage{width: 2, height: 2, bits: 16, format: 2, strip: int16Strip(-3, 1, 2, 4)},
	)

	stack, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	dir := t.TempDir()
	res, err := layers.NewSerializer(&layers.Params{OutputDir: dir, Header: layers.DefaultHeaderOptions()}).
		Serialize(context.Background(), stack)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("Expected 2 layer files, got %d", len(res.Files))
	}

	got, err := os.ReadFile(res.Files[0])
	if err != nil {
		t.Fatalf("Failed to read layer file: %v", err)
	}
	if want := "2 2 1 1 -0.5 2\n-0.5 0.25\n1.5 2\n\n"; string(got) != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	record, err := layers.ReadFile(res.Files[1])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if record.Header.Min != -3 || record.Header.Max != 4 {
		t.Errorf("Expected min -3 and max 4, got %v and %v", record.Header.Min, record.Header.Max)
	}
	if record.Rows[0][0] != -3 || record.Rows[1][1] != 4 {
		t.Errorf("Unexpected rows %v", record.Rows)
	}
}
