// Package capture owns the camera handle and turns live video into encoded
// still frames ready to be submitted to the recognition service.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	// ErrCameraUnavailable is returned when the capture device cannot be opened
	// or does not deliver frames.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrEncodeFailure is returned when a frame cannot be turned into an image payload.
	ErrEncodeFailure = errors.New("frame encode failure")
)

// DefaultQuality matches the 0.9 quality browsers use for canvas snapshots.
const DefaultQuality = 0.9

const mimeJPEG = "image/jpeg"

// DefaultFileName is the file name given to camera snapshots.
const DefaultFileName = "frame.jpg"

// Frame is a single encoded still image.
type Frame struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MIMEType   string    `json:"mime_type"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"captured_at"`
	Data       []byte    `json:"-"`
}

// Size returns the payload size in bytes.
func (f *Frame) Size() int {
	return len(f.Data)
}

// encodeFrame encodes img as JPEG. quality is in the 0..1 range.
func encodeFrame(img image.Image, quality float64) (*Frame, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-dimension frame", ErrEncodeFailure)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrEncodeFailure)
	}

	return &Frame{
		ID:         uuid.New().String(),
		FileName:   DefaultFileName,
		MIMEType:   mimeJPEG,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		CapturedAt: time.Now(),
		Data:       buf.Bytes(),
	}, nil
}

// jpegQuality maps a 0..1 quality to image/jpeg's 1..100 scale.
// Out of range values fall back to DefaultQuality.
func jpegQuality(quality float64) int {
	if quality <= 0 || quality > 1 {
		quality = DefaultQuality
	}
	q := int(quality*100 + 0.5)
	if q < 1 {
		q = 1
	}
	return q
}

// FromUpload wraps an uploaded image file as a Frame without re-encoding it.
// The payload must be a decodable image (JPEG, PNG, GIF, BMP or WebP).
func FromUpload(name string, data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrEncodeFailure)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", ErrEncodeFailure, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: zero-dimension image", ErrEncodeFailure)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/" + format
	}

	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "upload." + format
	}

	return &Frame{
		ID:         uuid.New().String(),
		FileName:   name,
		MIMEType:   mimeType,
		Width:      cfg.Width,
		Height:     cfg.Height,
		CapturedAt: time.Now(),
		Data:       data,
	}, nil
}
