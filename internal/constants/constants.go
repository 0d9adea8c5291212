// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Capture constants
const (
	// DefaultEnrollmentFrames is the number of frames bundled into one enrollment
	DefaultEnrollmentFrames = 3

	// MaxEnrollmentFrames caps the configurable frame count
	MaxEnrollmentFrames = 10

	// PreviewQuality is the JPEG quality (0..1) of live preview snapshots
	PreviewQuality = 0.6

	// PreviewMaxDimension bounds the preview image size
	PreviewMaxDimension = 640
)

// Handler constants
const (
	// MaxUploadSize is the maximum size of a multipart upload (32 MB)
	MaxUploadSize = 32 << 20

	// DefaultAttendanceLimit is the default number of attendance records to fetch
	DefaultAttendanceLimit = 100

	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Status messages shown on the kiosk pages
const (
	StatusRecognizing       = "Recognizing..."
	StatusDone              = "Done"
	StatusError             = "Error"
	StatusEnrolling         = "Enrolling..."
	StatusEnrollError       = "Error enrolling"
	StatusEnterStudentID    = "Enter student id"
	StatusCameraDenied      = "Camera permission denied"
	StatusReportSaved       = "Report saved"
	StatusReportError       = "Error downloading report"
	StatusBusy              = "Please wait, still working"
	StatusEnrolledPrefix    = "Enrolled "
	StatusSessionStarted    = "Session started"
	StatusSessionStartError = "Error starting session"
)
