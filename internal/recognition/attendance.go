package recognition

import (
	"context"
	"fmt"
)

// ListAttendance returns the most recent attendance records in the order the
// service provides (newest first). limit <= 0 uses the service default.
func (c *Client) ListAttendance(ctx context.Context, limit int) ([]AttendanceRecord, error) {
	endpoint := "attendance"
	if limit > 0 {
		endpoint = fmt.Sprintf("attendance?limit=%d", limit)
	}

	records, err := doGetJSON[[]AttendanceRecord](ctx, c, "list attendance", endpoint)
	if err != nil {
		return nil, err
	}
	if *records == nil {
		return []AttendanceRecord{}, nil
	}
	return *records, nil
}

// StartSession opens a new attendance session on the service, which marks every
// enrolled student absent until recognized.
func (c *Client) StartSession(ctx context.Context) (*SessionResponse, error) {
	return doPostJSON[SessionResponse](ctx, c, "start session", "start_session")
}
