package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
)

// Device is a source of video frames. Implementations must be safe to Close
// more than once.
type Device interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// OpenFunc acquires a Device.
type OpenFunc func(ctx context.Context) (Device, error)

// Options tune snapshots taken from a Camera.
type Options struct {
	// MaxDimension downscales frames whose longest side exceeds it. 0 keeps native size.
	MaxDimension int
}

// Camera is an owned handle on a streaming capture device. It is created with
// Start and must be released with Stop.
type Camera struct {
	device    Device
	opts      Options
	mu        sync.Mutex
	streaming bool
}

// Start opens the device and reads a first frame to make sure it is actually
// delivering video. Failures are reported as ErrCameraUnavailable and are not retried.
func Start(ctx context.Context, open OpenFunc, opts Options) (*Camera, error) {
	device, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	img, err := device.Read(ctx)
	if err != nil {
		device.Close()
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if img == nil || img.Bounds().Empty() {
		device.Close()
		return nil, fmt.Errorf("%w: device returned an empty frame", ErrCameraUnavailable)
	}

	return &Camera{device: device, opts: opts, streaming: true}, nil
}

// Streaming reports whether the camera is delivering frames.
func (c *Camera) Streaming() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

// CaptureFrame snapshots the current video frame and encodes it as JPEG at the
// given quality (0..1). Calls on a stopped camera fail with ErrEncodeFailure.
func (c *Camera) CaptureFrame(ctx context.Context, quality float64) (*Frame, error) {
	return c.CaptureScaled(ctx, quality, 0)
}

// CaptureScaled is CaptureFrame with the snapshot bounded to maxDimension on
// top of the camera's own MaxDimension. 0 applies only the camera limit.
func (c *Camera) CaptureScaled(ctx context.Context, quality float64, maxDimension int) (*Frame, error) {
	img, err := c.read(ctx)
	if err != nil {
		return nil, err
	}

	limit := c.opts.MaxDimension
	if maxDimension > 0 && (limit <= 0 || maxDimension < limit) {
		limit = maxDimension
	}
	return encodeFrame(fitWithin(img, limit), quality)
}

// read grabs one frame. Only the read holds the lock; scaling and encoding
// work on the returned image.
func (c *Camera) read(ctx context.Context) (image.Image, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: camera not started", ErrEncodeFailure)
	}

	// Only one read at a time; the device has a single read buffer.
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.streaming {
		return nil, fmt.Errorf("%w: camera not streaming", ErrEncodeFailure)
	}

	img, err := c.device.Read(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailure, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: no frame available", ErrEncodeFailure)
	}
	return img, nil
}

// Stop releases the device. It is safe to call multiple times.
func (c *Camera) Stop() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.streaming {
		return nil
	}
	c.streaming = false
	if err := c.device.Close(); err != nil {
		return fmt.Errorf("closing capture device: %w", err)
	}
	return nil
}

// StillDevice replays a fixed image. Useful for kiosks without a camera and for tests.
type StillDevice struct {
	img    image.Image
	mu     sync.Mutex
	closed bool
}

// NewStillDevice returns a device that always yields img.
func NewStillDevice(img image.Image) *StillDevice {
	return &StillDevice{img: img}
}

// OpenStill returns an OpenFunc decoding the image at path on every open.
func OpenStill(path string) OpenFunc {
	return func(ctx context.Context) (Device, error) {
		f, err := os.Open(path) //nolint:gosec // operator-provided replay image
		if err != nil {
			return nil, fmt.Errorf("could not open still image: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("could not decode still image: %w", err)
		}
		return NewStillDevice(img), nil
	}
}

// Read returns the still image.
func (d *StillDevice) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("device closed")
	}
	return d.img, nil
}

// Close marks the device closed.
func (d *StillDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
