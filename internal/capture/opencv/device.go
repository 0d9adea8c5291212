// Package opencv provides a capture.Device backed by an OpenCV VideoCapture.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"gocv.io/x/gocv"
)

// Device reads frames from a webcam, video file or stream URL.
type Device struct {
	webcam *gocv.VideoCapture
	frame  gocv.Mat
	mu     sync.Mutex // Protects webcam and frame
	closed bool
}

// Opener returns a capture.OpenFunc for the configured camera.
func Opener(cfg config.CameraConfig) capture.OpenFunc {
	return func(ctx context.Context) (capture.Device, error) {
		return Open(cfg)
	}
}

// Open opens the configured capture device and applies the requested resolution.
func Open(cfg config.CameraConfig) (*Device, error) {
	var source any = cfg.Device
	if idx, ok := cfg.DeviceIndex(); ok {
		source = idx
	}

	webcam, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("open video capture %s: %w", cfg.Device, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("video capture %s is not opened", cfg.Device)
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	return &Device{
		webcam: webcam,
		frame:  gocv.NewMat(),
	}, nil
}

// Read grabs the next frame and converts it to an image.Image.
func (d *Device) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("device closed")
	}
	if ok := d.webcam.Read(&d.frame); !ok {
		return nil, errors.New("could not read frame")
	}
	if d.frame.Empty() {
		return nil, errors.New("empty frame")
	}

	img, err := d.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Close releases the capture device and frame buffer.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.frame.Close()
	if err := d.webcam.Close(); err != nil {
		return fmt.Errorf("close video capture: %w", err)
	}
	return nil
}
