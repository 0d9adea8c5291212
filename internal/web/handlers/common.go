package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/web/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps workflow and client errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, recognition.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, capture.ErrCameraUnavailable), errors.Is(err, capture.ErrEncodeFailure):
		return http.StatusServiceUnavailable
	case recognition.IsNotFoundError(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// respondWorkflowError sends the error of a failed workflow run.
func respondWorkflowError(w http.ResponseWriter, err error) {
	respondError(w, errorStatus(err), err.Error())
}

// sessionPage returns the page of the browser session attached by
// middleware.WithSession. On failure it writes an error and returns nil.
func sessionPage(w http.ResponseWriter, r *http.Request) *workflow.Page {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil || session.Page == nil {
		respondError(w, http.StatusInternalServerError, "no session")
		return nil
	}
	return session.Page
}

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
