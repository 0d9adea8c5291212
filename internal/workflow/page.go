package workflow

import (
	"context"
	"log"
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// PageOptions configure a mounted page.
type PageOptions struct {
	// Open acquires the camera. Nil mounts a page without a camera.
	Open             capture.OpenFunc
	Camera           capture.Options
	Quality          float64
	EnrollmentFrames int
	// LoadList fetches the attendance list on mount. Pages that do not show
	// the list leave it off.
	LoadList bool
}

// Page is one mounted kiosk page. It owns its camera from Mount until Unmount
// and wires the workflows to it.
type Page struct {
	UI          *UIState
	Recognition *RecognitionWorkflow
	Enrollment  *EnrollmentWorkflow
	Report      *ReportDownload
	Session     *SessionStart

	list    Refresher
	mu      sync.Mutex
	camera  *capture.Camera
	mounted bool
}

// Mount starts the camera and, with LoadList, loads the attendance list. A
// camera failure does not fail the mount: the page stays usable with the
// status set to the permission message and streaming off.
func Mount(ctx context.Context, api API, list Refresher, opts PageOptions) *Page {
	ui := &UIState{}

	var camera *capture.Camera
	if opts.Open != nil {
		cam, err := capture.Start(ctx, opts.Open, opts.Camera)
		if err != nil {
			log.Printf("camera unavailable: %v", err)
			ui.SetStatus(constants.StatusCameraDenied)
		} else {
			camera = cam
			ui.setStreaming(true)
		}
	}

	quality := opts.Quality
	if quality <= 0 || quality > 1 {
		quality = capture.DefaultQuality
	}

	p := &Page{
		UI:      ui,
		list:    list,
		camera:  camera,
		mounted: true,
	}
	var source FrameSource
	if camera != nil {
		source = camera
	}
	p.Recognition = NewRecognitionWorkflow(source, api, list, ui, quality)
	p.Enrollment = NewEnrollmentWorkflow(source, api, list, ui, quality, opts.EnrollmentFrames)
	p.Report = NewReportDownload(api, ui)
	p.Session = NewSessionStart(api, ui)

	if opts.LoadList && list != nil {
		list.Refresh(ctx)
	}
	return p
}

// Streaming reports whether the page has a live camera.
func (p *Page) Streaming() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted && p.camera.Streaming()
}

// Preview returns a small, low quality snapshot for the live view.
func (p *Page) Preview(ctx context.Context) (*capture.Frame, error) {
	p.mu.Lock()
	camera := p.camera
	p.mu.Unlock()
	return camera.CaptureScaled(ctx, constants.PreviewQuality, constants.PreviewMaxDimension)
}

// OpenEnrollment opens the enrollment modal.
func (p *Page) OpenEnrollment() {
	p.UI.SetModalOpen(true)
}

// CloseEnrollment closes the modal. The typed identifier is kept.
func (p *Page) CloseEnrollment() {
	p.UI.SetModalOpen(false)
}

// Refresh reloads the attendance list.
func (p *Page) Refresh(ctx context.Context) []recognition.AttendanceRecord {
	if p.list == nil {
		return nil
	}
	return p.list.Refresh(ctx)
}

// Unmount releases the camera and clears the page state. It is safe to call
// more than once.
func (p *Page) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return
	}
	p.mounted = false
	if err := p.camera.Stop(); err != nil {
		log.Printf("stopping camera: %v", err)
	}
	p.UI.reset()
}
