// Package attendance keeps the client-side copy of the attendance log and
// notifies open pages when it changes.
package attendance

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// Lister fetches attendance records from the recognition service.
type Lister interface {
	ListAttendance(ctx context.Context, limit int) ([]recognition.AttendanceRecord, error)
}

// View is the attendance list as last fetched. A failed fetch leaves it empty
// instead of surfacing the error.
type View struct {
	EventBroadcaster

	lister    Lister
	limit     int
	records   []recognition.AttendanceRecord
	refreshes int
	updatedAt time.Time
	mu        sync.RWMutex
}

// NewView creates an empty view. Call Refresh to load it.
func NewView(lister Lister, limit int) *View {
	return &View{
		lister:  lister,
		limit:   limit,
		records: []recognition.AttendanceRecord{},
	}
}

// Refresh fetches the list and notifies listeners. It never fails: on error the
// view becomes empty and the error is only logged.
func (v *View) Refresh(ctx context.Context) []recognition.AttendanceRecord {
	records, err := v.lister.ListAttendance(ctx, v.limit)
	if err != nil {
		log.Printf("attendance: refresh failed, showing empty list: %v", err)
		records = nil
	}
	if records == nil {
		records = []recognition.AttendanceRecord{}
	}

	v.mu.Lock()
	v.records = records
	v.refreshes++
	v.updatedAt = time.Now()
	event := Event{Type: "refresh", Count: len(records), UpdatedAt: v.updatedAt}
	v.mu.Unlock()

	v.SendEvent(event)
	return slices.Clone(records)
}

// Records returns a copy of the current list.
func (v *View) Records() []recognition.AttendanceRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.records)
}

// RefreshCount returns how many times the list has been refreshed.
func (v *View) RefreshCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.refreshes
}

// UpdatedAt returns the time of the last refresh, zero if never refreshed.
func (v *View) UpdatedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.updatedAt
}
