package recognition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// RecognitionResult is one face found in a submitted image.
type RecognitionResult struct {
	StudentID  string   `json:"student_id"`
	Similarity *float64 `json:"similarity,omitempty"`
	Distance   *float64 `json:"distance,omitempty"`
	BBox       []int    `json:"bbox,omitempty"`
}

// Recognized reports whether the face was matched to an enrolled student.
func (r RecognitionResult) Recognized() bool {
	return r.StudentID != ""
}

// RecognizeResponse is the recognition endpoint response. Recorded lists the
// attendance entries the service wrote for this image.
type RecognizeResponse struct {
	Results  []RecognitionResult `json:"results"`
	Recorded []RecognitionResult `json:"recorded"`
}

// EnrollResponse is the enrollment endpoint response. The service treats it as
// opaque; the known fields are decoded when present.
type EnrollResponse struct {
	Status   string          `json:"status,omitempty"`
	Enrolled string          `json:"enrolled,omitempty"`
	Images   int             `json:"images,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// AttendanceRecord is a server-persisted attendance event.
type AttendanceRecord struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Timestamp Timestamp `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

// Report is a downloaded attendance report.
type Report struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SessionResponse is returned when a new attendance session is started.
type SessionResponse struct {
	Message string `json:"message"`
}

// timestampLayouts lists the formats the service is known to emit. Python's
// isoformat() omits the zone for naive datetimes, which are UTC on the server.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp accepts RFC 3339 as well as zone-less ISO 8601 timestamps.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
