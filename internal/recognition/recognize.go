package recognition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// Recognize submits a single image for identity matching. Attendance entries
// written by the service for recognized faces are returned in Recorded.
func (c *Client) Recognize(ctx context.Context, frame *capture.Frame) (*RecognizeResponse, error) {
	if frame == nil || frame.Size() == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrValidation)
	}

	body, err := c.doPostMultipart(ctx, "recognize", "recognize", "file", []*capture.Frame{frame}, false)
	if err != nil {
		return nil, err
	}

	var result RecognizeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	if result.Results == nil {
		result.Results = []RecognitionResult{}
	}
	if result.Recorded == nil {
		result.Recorded = []RecognitionResult{}
	}
	return &result, nil
}
