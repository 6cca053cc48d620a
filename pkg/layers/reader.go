package layers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sliceframes/internal/models"
)

// maxLineSize bounds a single row of a layer file
const maxLineSize = 64 << 20

// Parse reads a layer file. Every row must have the same number of values and
// the grid must be terminated by an empty line.
func Parse(r io.Reader) (*models.LayerRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("missing header line")
	}
	header, err := parseHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	record := &models.LayerRecord{Header: header}
	terminated := false
	line := 1
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if terminated {
			if strings.TrimSpace(text) != "" {
				return nil, fmt.Errorf("line %d: content after trailing empty line", line)
			}
			continue
		}
		if text == "" {
			terminated = true
			continue
		}

		fields := strings.Split(text, " ")
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: value %d: %w", line, i+1, err)
			}
			row[i] = v
		}
		if len(record.Rows) > 0 && len(row) != len(record.Rows[0]) {
			return nil, fmt.Errorf("line %d: expected %d values, got %d", line, len(record.Rows[0]), len(row))
		}
		record.Rows = append(record.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !terminated {
		return nil, errors.New("missing trailing empty line")
	}

	return record, nil
}

func parseHeader(text string) (models.LayerHeader, error) {
	var h models.LayerHeader
	fields := strings.Fields(text)
	if len(fields) != 6 {
		return h, fmt.Errorf("header: expected 6 fields, got %d", len(fields))
	}

	ints := []*int{&h.Width, &h.Height, &h.Flag1, &h.Flag2}
	for i, dst := range ints {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return h, fmt.Errorf("header field %d: %w", i+1, err)
		}
		*dst = n
	}

	var err error
	if h.Min, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return h, fmt.Errorf("header min: %w", err)
	}
	if h.Max, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return h, fmt.Errorf("header max: %w", err)
	}

	return h, nil
}

// ReadFile parses the layer file at path
func ReadFile(path string) (*models.LayerRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, models.NewIOError("open", path, err)
	}
	defer file.Close()

	record, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return record, nil
}
