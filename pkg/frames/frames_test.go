package frames

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"sliceframes/internal/models"
)

// writeTestPNG writes a solid grey PNG of the given size
func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x + y)})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

// TestListFiltersAndSorts verifies suffix filtering and lexical ordering
func TestListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.PNG", "c.png", "notes.txt"} {
		writeTestPNG(t, filepath.Join(dir, name), 4, 4)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	set, err := List(dir, ".png", Lexical)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"a.PNG", "b.png", "c.png"}
	if !reflect.DeepEqual(set.Files, want) {
		t.Errorf("Expected %v, got %v", want, set.Files)
	}
	if set.Path(1) != filepath.Join(dir, "b.png") {
		t.Errorf("Unexpected path %s", set.Path(1))
	}
}

// TestListEmpty verifies that an empty selection is reported as ErrEmptyInput
func TestListEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := List(dir, ".png", Lexical)
	if !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

// TestListMissingDir verifies that an unreadable directory is an IOError
func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"), ".png", Lexical)

	var ioErr *models.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected *models.IOError, got %v", err)
	}
}

// TestSortNumeric verifies digit-aware ordering
func TestSortNumeric(t *testing.T) {
	names := []string{"frame10.png", "frame2.png", "frame1.png", "cover.png", "frame02.png"}

	Sort(names, Numeric)

	want := []string{"cover.png", "frame1.png", "frame02.png", "frame2.png", "frame10.png"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}

	Sort(names, Lexical)
	want = []string{"cover.png", "frame02.png", "frame1.png", "frame10.png", "frame2.png"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}
}

// TestParseOrder covers accepted and rejected values
func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"", Lexical, false},
		{"lexical", Lexical, false},
		{"Numeric", Numeric, false},
		{"random", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestGeometry verifies the first frame defines the sequence size
func TestGeometry(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "001.png"), 8, 6)
	writeTestPNG(t, filepath.Join(dir, "002.png"), 3, 3)

	set, err := List(dir, ".png", Lexical)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	size, err := Geometry(set)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if size != image.Pt(8, 6) {
		t.Errorf("Expected 8x6, got %v", size)
	}

	if _, err := Geometry(&models.ImageSet{Dir: dir}); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput for empty set, got %v", err)
	}
}

// TestDecodeInvalid verifies a corrupt image is reported as an IOError
func TestDecodeInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := Decode(path)
	var ioErr *models.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Expected *models.IOError, got %v", err)
	}
}
