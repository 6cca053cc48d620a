package video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/icza/mjpeg"

	"sliceframes/internal/models"
)

// CodecMJPG is the four character code of Motion-JPEG
const CodecMJPG = "MJPG"

// Container receives frames in order and is finalised by Close
type Container interface {
	// WriteFrame appends one frame to the container
	WriteFrame(img image.Image) error

	// Close flushes the index and headers and releases the file
	Close() error
}

// Opener creates a container of the given frame size at path
type Opener func(path string, size image.Point) (Container, error)

// mjpegContainer writes an AVI file where every frame is a JPEG image
type mjpegContainer struct {
	path    string
	aw      mjpeg.AviWriter
	quality int
	buf     bytes.Buffer
}

// OpenMJPEG creates or overwrites an MJPEG AVI file at path
func OpenMJPEG(path, codec string, fps int, size image.Point, quality int) (Container, error) {
	if !strings.EqualFold(codec, CodecMJPG) {
		return nil, fmt.Errorf("unsupported codec %q (only %s)", codec, CodecMJPG)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", size.X, size.Y)
	}
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	aw, err := mjpeg.New(path, int32(size.X), int32(size.Y), int32(fps))
	if err != nil {
		return nil, models.NewIOError("create", path, err)
	}

	return &mjpegContainer{path: path, aw: aw, quality: quality}, nil
}

// MJPEGOpener binds codec, frame rate and quality into an Opener
func MJPEGOpener(codec string, fps, quality int) Opener {
	return func(path string, size image.Point) (Container, error) {
		return OpenMJPEG(path, codec, fps, size, quality)
	}
}

func (c *mjpegContainer) WriteFrame(img image.Image) error {
	c.buf.Reset()
	if err := jpeg.Encode(&c.buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := c.aw.AddFrame(c.buf.Bytes()); err != nil {
		return models.NewIOError("write", c.path, err)
	}
	return nil
}

func (c *mjpegContainer) Close() error {
	return models.NewIOError("close", c.path, c.aw.Close())
}
