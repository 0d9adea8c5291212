package workflow

import (
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// UIState is the transient state of one mounted page.
type UIState struct {
	mu        sync.RWMutex
	streaming bool
	status    string
	modalOpen bool
	studentID string
	results   []recognition.RecognitionResult
	updatedAt time.Time
}

// UISnapshot is a point-in-time copy of UIState for rendering.
type UISnapshot struct {
	Streaming bool                            `json:"streaming"`
	Status    string                          `json:"status"`
	ModalOpen bool                            `json:"modal_open"`
	StudentID string                          `json:"student_id"`
	Results   []recognition.RecognitionResult `json:"results"`
	UpdatedAt time.Time                       `json:"updated_at"`
}

func (u *UIState) touch() {
	u.updatedAt = time.Now()
}

// SetStatus replaces the status message.
func (u *UIState) SetStatus(status string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = status
	u.touch()
}

// Status returns the last status message.
func (u *UIState) Status() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.status
}

func (u *UIState) setStreaming(streaming bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.streaming = streaming
	u.touch()
}

// Streaming reports whether the page has a live camera.
func (u *UIState) Streaming() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.streaming
}

// SetModalOpen opens or closes the enrollment modal.
func (u *UIState) SetModalOpen(open bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.modalOpen = open
	u.touch()
}

// ModalOpen reports whether the enrollment modal is open.
func (u *UIState) ModalOpen() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.modalOpen
}

// SetStudentID stores the pending student identifier input.
func (u *UIState) SetStudentID(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.studentID = id
	u.touch()
}

// StudentID returns the pending student identifier input.
func (u *UIState) StudentID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.studentID
}

func (u *UIState) setResults(results []recognition.RecognitionResult) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.results = slices.Clone(results)
	u.touch()
}

// Results returns the raw results of the last recognition.
func (u *UIState) Results() []recognition.RecognitionResult {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.results)
}

// resetEnrollment clears the identifier input and closes the modal.
func (u *UIState) resetEnrollment() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.studentID = ""
	u.modalOpen = false
	u.touch()
}

// reset returns the state to a freshly mounted page.
func (u *UIState) reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.streaming = false
	u.status = ""
	u.modalOpen = false
	u.studentID = ""
	u.results = nil
	u.touch()
}

// Snapshot returns a copy for rendering.
func (u *UIState) Snapshot() UISnapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()
	results := slices.Clone(u.results)
	if results == nil {
		results = []recognition.RecognitionResult{}
	}
	return UISnapshot{
		Streaming: u.streaming,
		Status:    u.status,
		ModalOpen: u.modalOpen,
		StudentID: u.studentID,
		Results:   results,
		UpdatedAt: u.updatedAt,
	}
}
