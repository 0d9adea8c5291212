package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"maps"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/web/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
)

// hitCounter counts requests per path on the mock service
type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (c *hitCounter) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

// setupMockRecognitionServer creates a mock recognition service. Every path is
// counted; unknown paths return 404.
func setupMockRecognitionServer(t *testing.T, handlers map[string]http.HandlerFunc) (*httptest.Server, *hitCounter) {
	t.Helper()

	counter := &hitCounter{hits: make(map[string]int)}
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.mu.Lock()
		counter.hits[r.URL.Path]++
		counter.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server, counter
}

// attendanceHandler serves a fixed attendance list
func attendanceHandler(records ...map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if records == nil {
			records = []map[string]any{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

// createRecognitionClient creates a client connected to a mock server
func createRecognitionClient(t *testing.T, server *httptest.Server) *recognition.Client {
	t.Helper()
	client, err := recognition.New(server.URL, "")
	if err != nil {
		t.Fatalf("failed to create recognition client: %v", err)
	}
	return client
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := range 48 {
		for x := range 64 {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	return img
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// stillCamera opens a fake camera replaying the test image
func stillCamera() capture.OpenFunc {
	return func(context.Context) (capture.Device, error) {
		return capture.NewStillDevice(testImage()), nil
	}
}

// testEnv is a kiosk page plus a browser session page wired to one client.
type testEnv struct {
	client  *recognition.Client
	list    *attendance.View
	kiosk   *workflow.Page
	session *middleware.Session
}

func newTestEnv(t *testing.T, server *httptest.Server, open capture.OpenFunc) *testEnv {
	t.Helper()
	client := createRecognitionClient(t, server)
	list := attendance.NewView(client, 100)
	kiosk := workflow.Mount(context.Background(), client, list, workflow.PageOptions{
		Open:             open,
		EnrollmentFrames: 3,
		LoadList:         true,
	})
	session := &middleware.Session{
		ID:   "test-session",
		Page: workflow.Mount(context.Background(), client, list, workflow.PageOptions{}),
	}
	t.Cleanup(func() {
		kiosk.Unmount()
		session.Page.Unmount()
	})
	return &testEnv{client: client, list: list, kiosk: kiosk, session: session}
}

// requestWithSession attaches the env's browser session to the request
func (e *testEnv) requestWithSession(r *http.Request) *http.Request {
	return r.WithContext(middleware.SetSessionInContext(r.Context(), e.session))
}

// multipartRequest builds a multipart request with text fields and image files
func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileField string, files map[string][]byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(files)) {
		part, err := writer.CreateFormFile(fileField, name)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(files[name])
	}
	writer.Close()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertRedirect checks for a 303 to the expected location
func assertRedirect(t *testing.T, recorder *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatusCode(t, recorder, http.StatusSeeOther)
	if got := recorder.Header().Get("Location"); got != location {
		t.Errorf("expected redirect to '%s', got '%s'", location, got)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
