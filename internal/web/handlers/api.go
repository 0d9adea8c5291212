package handlers

import (
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
)

// APIHandler serves the JSON API. Requests carrying images run on the
// browser's session page; requests without images drive the kiosk camera.
type APIHandler struct {
	kiosk *workflow.Page
	list  *attendance.View
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(kiosk *workflow.Page, list *attendance.View) *APIHandler {
	return &APIHandler{
		kiosk: kiosk,
		list:  list,
	}
}

// Recognize identifies the uploaded "file" image, or a fresh camera frame when
// no file is sent.
func (h *APIHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	frames, err := readFrames(r, "file")
	switch {
	case errors.Is(err, errNoFiles):
		resp, err := h.kiosk.Recognition.Run(r.Context())
		if err != nil {
			respondWorkflowError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := sessionPage(w, r)
	if page == nil {
		return
	}
	resp, err := page.Recognition.Submit(r.Context(), frames[0])
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Enroll registers the uploaded "files" images under student_id, or captures
// frames from the kiosk camera when no file is sent.
func (h *APIHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := parseUploadForm(r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var form enrollForm
	if err := decodeForm(&form, r.Form); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	frames, err := readFrames(r, "files")
	switch {
	case errors.Is(err, errNoFiles):
		resp, err := h.kiosk.Enrollment.Run(r.Context(), form.StudentID)
		if err != nil {
			respondWorkflowError(w, err)
			return
		}
		respondEnrollment(w, resp)
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := sessionPage(w, r)
	if page == nil {
		return
	}
	resp, err := page.Enrollment.Submit(r.Context(), form.StudentID, frames)
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondEnrollment(w, resp)
}

// respondEnrollment passes the service response through untouched when it was JSON.
func respondEnrollment(w http.ResponseWriter, resp *recognition.EnrollResponse) {
	if len(resp.Raw) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(resp.Raw)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Attendance returns the attendance list. The service is queried unless
// cached=true is given.
func (h *APIHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	var query listQuery
	if err := decodeForm(&query, r.URL.Query()); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records := h.list.Records()
	if !query.Cached {
		records = h.list.Refresh(r.Context())
	}
	respondJSON(w, http.StatusOK, records)
}

// Report streams the attendance report as a file download.
func (h *APIHandler) Report(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	if _, err := page.Report.Run(r.Context(), attachmentSaver{w: w}); err != nil {
		respondWorkflowError(w, err)
	}
}

// StartSession opens a new attendance session on the service.
func (h *APIHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	resp, err := page.Session.Run(r.Context())
	if err != nil {
		respondWorkflowError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DashboardStateResponse describes the kiosk page.
type DashboardStateResponse struct {
	workflow.UISnapshot
	Recognition workflow.State `json:"recognition"`
	Enrollment  workflow.State `json:"enrollment"`
	Capturing   int            `json:"capturing_frame"`
	Frames      int            `json:"enrollment_frames"`
}

// DashboardState returns the kiosk page state.
func (h *APIHandler) DashboardState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, DashboardStateResponse{
		UISnapshot:  h.kiosk.UI.Snapshot(),
		Recognition: h.kiosk.Recognition.State(),
		Enrollment:  h.kiosk.Enrollment.State(),
		Capturing:   h.kiosk.Enrollment.CaptureIndex(),
		Frames:      h.kiosk.Enrollment.Frames(),
	})
}

// Events streams attendance list refreshes as server-sent events.
func (h *APIHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamListEvents(w, r, h.list)
}

// attachmentSaver hands a report to the browser as a download.
type attachmentSaver struct {
	w http.ResponseWriter
}

func (s attachmentSaver) Save(_ context.Context, report *recognition.Report) (string, error) {
	name := filepath.Base(report.FileName)
	if report.FileName == "" {
		name = recognition.DefaultReportFileName
	}
	contentType := report.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	s.w.Header().Set("Content-Type", contentType)
	s.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	s.w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	s.w.WriteHeader(http.StatusOK)
	if _, err := s.w.Write(report.Data); err != nil {
		log.Printf("writing report to client: %v", err)
	}
	return name, nil
}
