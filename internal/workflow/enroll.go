package workflow

import (
	"context"
	"fmt"
	"log"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// EnrollmentWorkflow captures several frames of one student and registers
// them under the identifier typed into the page.
type EnrollmentWorkflow struct {
	machine

	source  FrameSource
	api     Enroller
	list    Refresher
	ui      *UIState
	quality float64
	frames  int
}

// NewEnrollmentWorkflow creates an idle workflow capturing frames snapshots per run.
func NewEnrollmentWorkflow(source FrameSource, api Enroller, list Refresher, ui *UIState, quality float64, frames int) *EnrollmentWorkflow {
	if frames <= 0 {
		frames = constants.DefaultEnrollmentFrames
	}
	return &EnrollmentWorkflow{
		source:  source,
		api:     api,
		list:    list,
		ui:      ui,
		quality: quality,
		frames:  frames,
	}
}

// Frames returns how many snapshots a run captures.
func (w *EnrollmentWorkflow) Frames() int {
	return w.frames
}

// Run takes studentID as the pending identifier, captures the frames one after
// another and submits them as one enrollment. A trigger rejected with ErrBusy
// leaves the identifier of the run in flight untouched.
func (w *EnrollmentWorkflow) Run(ctx context.Context, studentID string) (*recognition.EnrollResponse, error) {
	id, err := w.start(studentID)
	if err != nil {
		return nil, err
	}
	w.ui.SetStatus(constants.StatusEnrolling)

	if w.source == nil {
		return nil, w.fail(fmt.Errorf("no camera: %w", capture.ErrEncodeFailure))
	}

	frames := make([]*capture.Frame, 0, w.frames)
	for i := range w.frames {
		w.capturing(i)
		frame, err := w.source.CaptureFrame(ctx, w.quality)
		if err != nil {
			return nil, w.fail(fmt.Errorf("capturing frame %d of %d: %w", i+1, w.frames, err))
		}
		frames = append(frames, frame)
	}

	return w.submit(ctx, id, frames)
}

// Submit enrolls uploaded frames under studentID.
func (w *EnrollmentWorkflow) Submit(ctx context.Context, studentID string, frames []*capture.Frame) (*recognition.EnrollResponse, error) {
	id, err := w.start(studentID)
	if err != nil {
		return nil, err
	}
	w.ui.SetStatus(constants.StatusEnrolling)
	return w.submit(ctx, id, frames)
}

// Hold keeps studentID as the pending identifier without starting a run, so a
// rejected form does not lose what was typed. It does nothing while a run is
// in flight.
func (w *EnrollmentWorkflow) Hold(studentID string) bool {
	return w.whileIdle(func() { w.ui.SetStudentID(studentID) })
}

// start accepts the trigger, stores the identifier and validates it. An empty
// id ends the run before anything is captured.
func (w *EnrollmentWorkflow) start(studentID string) (string, error) {
	if err := w.beginWith(StateAwaitingIdentifier, func() { w.ui.SetStudentID(studentID) }); err != nil {
		return "", err
	}

	id := recognition.NormalizeStudentID(studentID)
	if id == "" {
		w.ui.SetStatus(constants.StatusEnterStudentID)
		w.finish(StateFailed)
		return "", fmt.Errorf("%w: student id is required", recognition.ErrValidation)
	}
	return id, nil
}

func (w *EnrollmentWorkflow) submit(ctx context.Context, studentID string, frames []*capture.Frame) (*recognition.EnrollResponse, error) {
	w.transition(StateSubmitting)

	resp, err := w.api.Enroll(ctx, frames, studentID)
	if err != nil {
		return nil, w.fail(err)
	}

	w.ui.SetStatus(constants.StatusEnrolledPrefix + studentID)
	w.ui.resetEnrollment()
	if w.list != nil {
		w.list.Refresh(ctx)
	}
	w.finish(StateDone)
	return resp, nil
}

// fail keeps the identifier so the operator can retry without retyping it.
func (w *EnrollmentWorkflow) fail(err error) error {
	log.Printf("enroll failed: %v", err)
	w.ui.SetStatus(constants.StatusEnrollError)
	w.finish(StateFailed)
	return err
}
