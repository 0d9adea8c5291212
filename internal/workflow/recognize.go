package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// RecognitionWorkflow captures one frame, submits it and refreshes the
// attendance list when the service recorded someone.
type RecognitionWorkflow struct {
	machine

	source  FrameSource
	api     Recognizer
	list    Refresher
	ui      *UIState
	quality float64
}

// NewRecognitionWorkflow creates an idle workflow. source may be nil for pages
// that only submit uploaded images.
func NewRecognitionWorkflow(source FrameSource, api Recognizer, list Refresher, ui *UIState, quality float64) *RecognitionWorkflow {
	return &RecognitionWorkflow{
		source:  source,
		api:     api,
		list:    list,
		ui:      ui,
		quality: quality,
	}
}

// Run captures a frame from the camera and recognizes it.
func (w *RecognitionWorkflow) Run(ctx context.Context) (*recognition.RecognizeResponse, error) {
	if err := w.begin(StateCapturing); err != nil {
		return nil, err
	}
	w.ui.SetStatus(constants.StatusRecognizing)

	if w.source == nil {
		return nil, w.fail(fmt.Errorf("no camera: %w", capture.ErrEncodeFailure))
	}
	frame, err := w.source.CaptureFrame(ctx, w.quality)
	if err != nil {
		return nil, w.fail(err)
	}

	return w.submit(ctx, frame)
}

// Submit recognizes an already captured or uploaded frame.
func (w *RecognitionWorkflow) Submit(ctx context.Context, frame *capture.Frame) (*recognition.RecognizeResponse, error) {
	if err := w.begin(StateSubmitting); err != nil {
		return nil, err
	}
	w.ui.SetStatus(constants.StatusRecognizing)
	return w.submit(ctx, frame)
}

func (w *RecognitionWorkflow) submit(ctx context.Context, frame *capture.Frame) (*recognition.RecognizeResponse, error) {
	w.transition(StateSubmitting)

	resp, err := w.api.Recognize(ctx, frame)
	if err != nil {
		return nil, w.fail(err)
	}

	w.ui.setResults(resp.Results)
	w.ui.SetStatus(constants.StatusDone)
	if len(resp.Recorded) > 0 && w.list != nil {
		w.list.Refresh(ctx)
	}
	w.finish(StateDone)
	return resp, nil
}

func (w *RecognitionWorkflow) fail(err error) error {
	log.Printf("recognize failed: %v", err)
	w.ui.SetStatus(constants.StatusError)
	w.finish(StateFailed)
	return err
}
