package volume

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
)

// maxPages bounds the IFD walk so a cyclic chain cannot loop forever
const maxPages = 1 << 16

// ifdOffsets returns the byte order of a classic TIFF file and the offset of
// every image file directory in chain order.
func ifdOffsets(data []byte) (binary.ByteOrder, []uint32, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("file too short for a TIFF header")
	}

	var order binary.ByteOrder
	switch string(data[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, errors.New("missing TIFF byte order mark")
	}

	switch magic := order.Uint16(data[2:4]); magic {
	case 42:
	case 43:
		return nil, nil, errors.New("BigTIFF files are not supported")
	default:
		return nil, nil, fmt.Errorf("bad TIFF magic %d", magic)
	}

	var offsets []uint32
	seen := make(map[uint32]bool)
	off := order.Uint32(data[4:8])
	for off != 0 {
		if seen[off] || len(offsets) >= maxPages {
			return nil, nil, fmt.Errorf("cyclic or oversized IFD chain at offset %d", off)
		}
		seen[off] = true

		if int64(off)+2 > int64(len(data)) {
			return nil, nil, fmt.Errorf("IFD offset %d beyond end of file", off)
		}
		entries := int64(order.Uint16(data[off : off+2]))
		next := int64(off) + 2 + entries*12
		if next+4 > int64(len(data)) {
			return nil, nil, fmt.Errorf("IFD at offset %d is truncated", off)
		}

		offsets = append(offsets, off)
		off = order.Uint32(data[next : next+4])
	}

	return order, offsets, nil
}

// pageReader presents a TIFF file whose header points at one chosen IFD, so
// a single-image decoder can read any page of a multi-page file.
type pageReader struct {
	data   []byte
	header [8]byte
	pos    int64
}

func newPageReader(data []byte, order binary.ByteOrder, ifd uint32) *pageReader {
	p := &pageReader{data: data}
	copy(p.header[:], data[:8])
	order.PutUint32(p.header[4:8], ifd)
	return p
}

func (p *pageReader) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	if off >= int64(len(p.data)) {
		return 0, io.EOF
	}

	n := copy(b, p.data[off:])
	for i := int64(4); i < 8; i++ {
		if i >= off && i < off+int64(n) {
			b[i-off] = p.header[i]
		}
	}

	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (p *pageReader) Read(b []byte) (int, error) {
	n, err := p.ReadAt(b, p.pos)
	p.pos += int64(n)
	return n, err
}

// decodeTIFF decodes every page of a TIFF file into a grid. Unsigned pages go
// through the image decoder, signed and floating-point pages are read as raw
// samples.
func decodeTIFF(data []byte) ([]*mat.Dense, error) {
	order, offsets, err := ifdOffsets(data)
	if err != nil {
		return nil, err
	}

	slices := make([]*mat.Dense, 0, len(offsets))
	for i, off := range offsets {
		p, err := readPage(data, order, off)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		var grid *mat.Dense
		if p.sampleFormat == sampleUint {
			img, err := tiff.Decode(newPageReader(data, order, off))
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
			grid, err = imageToGrid(img)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
		} else {
			grid, err = p.samples(data, order)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
		}
		slices = append(slices, grid)
	}

	return slices, nil
}
