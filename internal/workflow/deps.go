package workflow

import (
	"context"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// FrameSource produces JPEG snapshots. *capture.Camera satisfies it.
type FrameSource interface {
	CaptureFrame(ctx context.Context, quality float64) (*capture.Frame, error)
}

// Recognizer submits one frame for identification.
type Recognizer interface {
	Recognize(ctx context.Context, frame *capture.Frame) (*recognition.RecognizeResponse, error)
}

// Enroller submits a batch of frames for one student.
type Enroller interface {
	Enroll(ctx context.Context, frames []*capture.Frame, studentID string) (*recognition.EnrollResponse, error)
}

// ReportFetcher downloads the attendance report.
type ReportFetcher interface {
	DownloadReport(ctx context.Context) (*recognition.Report, error)
}

// SessionStarter opens a new attendance session on the service.
type SessionStarter interface {
	StartSession(ctx context.Context) (*recognition.SessionResponse, error)
}

// API is everything the workflows need from the recognition service.
// *recognition.Client satisfies it.
type API interface {
	Recognizer
	Enroller
	ReportFetcher
	SessionStarter
}

// Refresher reloads the attendance list. *attendance.View satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) []recognition.AttendanceRecord
}
