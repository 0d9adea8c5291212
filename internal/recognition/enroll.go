package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"golang.org/x/text/unicode/norm"
)

// NormalizeStudentID trims surrounding whitespace and applies Unicode NFC so the
// same identifier typed on different keyboards enrolls under one key.
func NormalizeStudentID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// Enroll registers reference images under a student identifier. The identifier
// is checked before anything is sent.
func (c *Client) Enroll(ctx context.Context, frames []*capture.Frame, studentID string) (*EnrollResponse, error) {
	studentID = NormalizeStudentID(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", ErrValidation)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", ErrValidation)
	}
	for i, frame := range frames {
		if frame == nil || frame.Size() == 0 {
			return nil, fmt.Errorf("%w: image %d is empty", ErrValidation, i)
		}
	}

	body, err := c.doPostMultipart(ctx, "enroll", "enroll", "files", frames, true,
		formField{name: "student_id", value: studentID})
	if err != nil {
		return nil, err
	}

	result := EnrollResponse{Raw: json.RawMessage(body)}
	// The body is opaque; a non-JSON success is still a success.
	_ = json.Unmarshal(body, &result)
	return &result, nil
}
