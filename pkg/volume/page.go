package volume

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/image/tiff/lzw"
	"gonum.org/v1/gonum/mat"
)

// TIFF tags read from each image file directory
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagStripByteCounts = 279
	tagPredictor       = 317
	tagTileOffsets     = 324
	tagSampleFormat    = 339
)

// SampleFormat values
const (
	sampleUint  = 1
	sampleInt   = 2
	sampleFloat = 3
)

// Compression values
const (
	compressionNone       = 1
	compressionLZW        = 5
	compressionDeflate    = 8
	compressionDeflateOld = 32946
)

const (
	predictorNone       = 1
	predictorHorizontal = 2
)

// page describes the layout of one TIFF page
type page struct {
	width           int
	height          int
	bitsPerSample   int
	samplesPerPixel int
	sampleFormat    int
	compression     int
	predictor       int
	tiled           bool
	stripOffsets    []uint32
	stripByteCounts []uint32
}

// readPage parses the directory at off. Unset tags take their TIFF defaults.
func readPage(data []byte, order binary.ByteOrder, off uint32) (*page, error) {
	p := &page{
		bitsPerSample:   1,
		samplesPerPixel: 1,
		sampleFormat:    sampleUint,
		compression:     compressionNone,
		predictor:       predictorNone,
	}

	n := int(order.Uint16(data[off : off+2]))
	for i := 0; i < n; i++ {
		start := int(off) + 2 + i*12
		entry := data[start : start+12]
		tag := order.Uint16(entry[0:2])

		switch tag {
		case tagImageWidth, tagImageLength, tagBitsPerSample, tagCompression,
			tagStripOffsets, tagSamplesPerPixel, tagStripByteCounts, tagPredictor,
			tagTileOffsets, tagSampleFormat:
		default:
			continue
		}

		values, err := entryValues(data, order, entry)
		if err != nil {
			return nil, fmt.Errorf("tag %d: %w", tag, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("tag %d has no values", tag)
		}

		switch tag {
		case tagImageWidth:
			p.width = int(values[0])
		case tagImageLength:
			p.height = int(values[0])
		case tagBitsPerSample:
			p.bitsPerSample = int(values[0])
		case tagCompression:
			p.compression = int(values[0])
		case tagStripOffsets:
			p.stripOffsets = values
		case tagSamplesPerPixel:
			p.samplesPerPixel = int(values[0])
		case tagStripByteCounts:
			p.stripByteCounts = values
		case tagPredictor:
			p.predictor = int(values[0])
		case tagTileOffsets:
			p.tiled = true
		case tagSampleFormat:
			p.sampleFormat = int(values[0])
		}
	}

	return p, nil
}

// entryValues reads the BYTE, SHORT or LONG values of one directory entry
func entryValues(data []byte, order binary.ByteOrder, entry []byte) ([]uint32, error) {
	typ := order.Uint16(entry[2:4])
	count := int64(order.Uint32(entry[4:8]))

	var size int64
	switch typ {
	case 1:
		size = 1
	case 3:
		size = 2
	case 4:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected field type %d", typ)
	}

	raw := entry[8:12]
	if count*size > 4 {
		start := int64(order.Uint32(entry[8:12]))
		if start+count*size > int64(len(data)) {
			return nil, errors.New("values beyond end of file")
		}
		raw = data[start : start+count*size]
	}

	values := make([]uint32, count)
	for i := range values {
		switch size {
		case 1:
			values[i] = uint32(raw[i])
		case 2:
			values[i] = uint32(order.Uint16(raw[i*2:]))
		case 4:
			values[i] = order.Uint32(raw[i*4:])
		}
	}
	return values, nil
}

// samples decodes a signed or floating-point grey page into a grid
func (p *page) samples(data []byte, order binary.ByteOrder) (*mat.Dense, error) {
	if p.width <= 0 || p.height <= 0 {
		return nil, fmt.Errorf("invalid page size %dx%d", p.width, p.height)
	}
	if p.samplesPerPixel != 1 {
		return nil, fmt.Errorf("%d samples per pixel, only single-channel pages are supported", p.samplesPerPixel)
	}
	if p.tiled {
		return nil, errors.New("tiled pages are not supported")
	}

	switch {
	case p.sampleFormat == sampleInt && (p.bitsPerSample == 8 || p.bitsPerSample == 16 || p.bitsPerSample == 32):
	case p.sampleFormat == sampleFloat && (p.bitsPerSample == 32 || p.bitsPerSample == 64):
	default:
		return nil, fmt.Errorf("unsupported sample format %d with %d bits", p.sampleFormat, p.bitsPerSample)
	}
	if p.predictor != predictorNone && !(p.predictor == predictorHorizontal && p.sampleFormat == sampleInt) {
		return nil, fmt.Errorf("unsupported predictor %d", p.predictor)
	}
	if len(p.stripOffsets) == 0 || len(p.stripOffsets) != len(p.stripByteCounts) {
		return nil, errors.New("missing or inconsistent strip tags")
	}

	bytesPerSample := p.bitsPerSample / 8
	rowBytes := p.width * bytesPerSample
	want := rowBytes * p.height

	raw := make([]byte, 0, want)
	for i, off := range p.stripOffsets {
		end := int64(off) + int64(p.stripByteCounts[i])
		if end > int64(len(data)) {
			return nil, fmt.Errorf("strip %d beyond end of file", i)
		}
		strip, err := p.decompress(data[off:end])
		if err != nil {
			return nil, fmt.Errorf("strip %d: %w", i, err)
		}
		raw = append(raw, strip...)
	}
	if len(raw) < want {
		return nil, fmt.Errorf("page holds %d bytes, expected %d", len(raw), want)
	}
	raw = raw[:want]

	if p.predictor == predictorHorizontal {
		undoHorizontal(raw, order, rowBytes, bytesPerSample)
	}

	values := make([]float64, p.width*p.height)
	for i := range values {
		b := raw[i*bytesPerSample:]
		switch {
		case p.sampleFormat == sampleInt && bytesPerSample == 1:
			values[i] = float64(int8(b[0]))
		case p.sampleFormat == sampleInt && bytesPerSample == 2:
			values[i] = float64(int16(order.Uint16(b)))
		case p.sampleFormat == sampleInt:
			values[i] = float64(int32(order.Uint32(b)))
		case bytesPerSample == 4:
			values[i] = float64(math.Float32frombits(order.Uint32(b)))
		default:
			values[i] = math.Float64frombits(order.Uint64(b))
		}
	}

	return mat.NewDense(p.height, p.width, values), nil
}

func (p *page) decompress(strip []byte) ([]byte, error) {
	var r io.ReadCloser
	switch p.compression {
	case compressionNone:
		return strip, nil
	case compressionLZW:
		r = lzw.NewReader(bytes.NewReader(strip), lzw.MSB, 8)
	case compressionDeflate, compressionDeflateOld:
		zr, err := zlib.NewReader(bytes.NewReader(strip))
		if err != nil {
			return nil, err
		}
		r = zr
	default:
		return nil, fmt.Errorf("unsupported compression %d", p.compression)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// undoHorizontal reverses horizontal differencing row by row. Sums wrap at
// the sample width.
func undoHorizontal(raw []byte, order binary.ByteOrder, rowBytes, size int) {
	for row := 0; row+rowBytes <= len(raw); row += rowBytes {
		line := raw[row : row+rowBytes]
		for x := size; x < len(line); x += size {
			switch size {
			case 1:
				line[x] += line[x-1]
			case 2:
				order.PutUint16(line[x:], order.Uint16(line[x:])+order.Uint16(line[x-2:]))
			case 4:
				order.PutUint32(line[x:], order.Uint32(line[x:])+order.Uint32(line[x-4:]))
			}
		}
	}
}
