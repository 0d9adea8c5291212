package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
)

// setupSSEConnection sets the event stream headers. On failure it writes an
// error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// streamListEvents sends the current list state and then every refresh of the
// list until the client disconnects.
func streamListEvents(w http.ResponseWriter, r *http.Request, list *attendance.View) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := list.AddListener()
	defer list.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", attendance.Event{
		Type:      "status",
		Count:     len(list.Records()),
		UpdatedAt: list.UpdatedAt(),
	})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}
