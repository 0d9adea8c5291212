package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

type fakeLister struct {
	records []recognition.AttendanceRecord
	err     error
	calls   int
	limit   int
}

func (f *fakeLister) ListAttendance(ctx context.Context, limit int) ([]recognition.AttendanceRecord, error) {
	f.calls++
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func sampleRecords() []recognition.AttendanceRecord {
	return []recognition.AttendanceRecord{
		{ID: 2, StudentID: "S2", Timestamp: recognition.Timestamp{Time: time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)}},
		{ID: 1, StudentID: "S1", Timestamp: recognition.Timestamp{Time: time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)}},
	}
}

func TestView_Refresh(t *testing.T) {
	lister := &fakeLister{records: sampleRecords()}
	view := NewView(lister, 50)

	records := view.Refresh(context.Background())

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if lister.limit != 50 {
		t.Errorf("expected limit 50, got %d", lister.limit)
	}
	if view.RefreshCount() != 1 {
		t.Errorf("expected refresh count 1, got %d", view.RefreshCount())
	}
	if view.UpdatedAt().IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
	// Order from the service is kept
	if got := view.Records(); got[0].StudentID != "S2" {
		t.Errorf("expected service order to be kept, got %v", got)
	}
}

func TestView_RefreshFailureRendersEmpty(t *testing.T) {
	lister := &fakeLister{records: sampleRecords()}
	view := NewView(lister, 10)
	view.Refresh(context.Background())

	lister.err = &recognition.NetworkError{Op: "list attendance", Err: errors.New("connection refused")}
	records := view.Refresh(context.Background())

	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", records)
	}
	if len(view.Records()) != 0 {
		t.Errorf("expected view to be emptied, got %d records", len(view.Records()))
	}
	if view.RefreshCount() != 2 {
		t.Errorf("expected refresh count 2, got %d", view.RefreshCount())
	}
}

func TestView_RecordsIsCopy(t *testing.T) {
	view := NewView(&fakeLister{records: sampleRecords()}, 10)
	view.Refresh(context.Background())

	records := view.Records()
	records[0].StudentID = "mutated"

	if view.Records()[0].StudentID != "S2" {
		t.Error("expected Records to return a copy")
	}
}

func TestView_NotifiesListeners(t *testing.T) {
	view := NewView(&fakeLister{records: sampleRecords()}, 10)

	ch := view.AddListener()
	defer view.RemoveListener(ch)

	view.Refresh(context.Background())

	select {
	case event := <-ch:
		if event.Type != "refresh" || event.Count != 2 {
			t.Errorf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected refresh event")
	}
}

func TestEventBroadcaster_RemoveListenerClosesChannel(t *testing.T) {
	var b EventBroadcaster
	ch := b.AddListener()
	if b.ListenerCount() != 1 {
		t.Fatalf("expected 1 listener, got %d", b.ListenerCount())
	}

	b.RemoveListener(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("expected 0 listeners, got %d", b.ListenerCount())
	}

	// Sending with no listeners must not block
	b.SendEvent(Event{Type: "refresh"})
}
