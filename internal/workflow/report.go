package workflow

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
)

// Saver stores a downloaded report and returns where it went.
type Saver interface {
	Save(ctx context.Context, report *recognition.Report) (string, error)
}

// DirSaver writes reports into a directory.
type DirSaver struct {
	Dir string
	// FileName overrides the name suggested by the service.
	FileName string
}

// Save writes the report, replacing any previous file with the same name.
func (s DirSaver) Save(_ context.Context, report *recognition.Report) (string, error) {
	name := s.FileName
	if name == "" {
		name = report.FileName
	}
	if name == "" {
		name = recognition.DefaultReportFileName
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, report.Data, 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// ReportDownload fetches the attendance report and hands it to a Saver.
type ReportDownload struct {
	machine

	api ReportFetcher
	ui  *UIState
}

// NewReportDownload creates an idle download workflow.
func NewReportDownload(api ReportFetcher, ui *UIState) *ReportDownload {
	return &ReportDownload{api: api, ui: ui}
}

// Run downloads the report and saves it. Nothing is saved when the download fails.
func (d *ReportDownload) Run(ctx context.Context, saver Saver) (string, error) {
	if err := d.begin(StateSubmitting); err != nil {
		return "", err
	}

	report, err := d.api.DownloadReport(ctx)
	if err != nil {
		return "", d.fail(err)
	}
	path, err := saver.Save(ctx, report)
	if err != nil {
		return "", d.fail(err)
	}

	d.ui.SetStatus(constants.StatusReportSaved)
	d.finish(StateDone)
	return path, nil
}

func (d *ReportDownload) fail(err error) error {
	log.Printf("report download failed: %v", err)
	d.ui.SetStatus(constants.StatusReportError)
	d.finish(StateFailed)
	return err
}

// SessionStart opens a new attendance session on the service.
type SessionStart struct {
	machine

	api SessionStarter
	ui  *UIState
}

// NewSessionStart creates an idle session workflow.
func NewSessionStart(api SessionStarter, ui *UIState) *SessionStart {
	return &SessionStart{api: api, ui: ui}
}

// Run starts the session and reports the service message.
func (s *SessionStart) Run(ctx context.Context) (*recognition.SessionResponse, error) {
	if err := s.begin(StateSubmitting); err != nil {
		return nil, err
	}

	resp, err := s.api.StartSession(ctx)
	if err != nil {
		log.Printf("start session failed: %v", err)
		s.ui.SetStatus(constants.StatusSessionStartError)
		s.finish(StateFailed)
		return nil, err
	}

	s.ui.SetStatus(constants.StatusSessionStarted)
	s.finish(StateDone)
	return resp, nil
}
