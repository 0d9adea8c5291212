package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/kozaktomas/attendance-kiosk/internal/web/static"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
)

var pageTitles = map[string]string{
	"home":       "Attendance",
	"enroll":     "Enroll student",
	"attendance": "Attendance",
	"logs":       "Attendance logs",
	"dashboard":  "Kiosk",
}

var templateFuncs = template.FuncMap{
	"deref": func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	},
	"timestamp": func(ts recognition.Timestamp) string {
		if ts.IsZero() {
			return "-"
		}
		return ts.Local().Format(time.DateTime)
	},
}

// pageData is what every page template receives.
type pageData struct {
	Title            string
	Page             string
	Status           string
	Streaming        bool
	ModalOpen        bool
	StudentID        string
	EnrollmentFrames int
	Results          []recognition.RecognitionResult
	Records          []recognition.AttendanceRecord
	RefreshCount     int
}

// PagesHandler renders the HTML pages and handles their form posts. The
// upload pages use the browser's session page, the dashboard uses the kiosk
// page that owns the camera.
type PagesHandler struct {
	kiosk     *workflow.Page
	list      *attendance.View
	templates map[string]*template.Template
}

// NewPagesHandler parses the embedded templates.
func NewPagesHandler(kiosk *workflow.Page, list *attendance.View) (*PagesHandler, error) {
	templates := make(map[string]*template.Template, len(pageTitles))
	for name := range pageTitles {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(static.Templates(),
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		templates[name] = tmpl
	}
	return &PagesHandler{
		kiosk:     kiosk,
		list:      list,
		templates: templates,
	}, nil
}

func (h *PagesHandler) render(w http.ResponseWriter, name string, data pageData) {
	data.Page = name
	data.Title = pageTitles[name]

	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("rendering %s: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// records returns the list for a page render: freshly fetched unless the
// browser reloads after a refresh event and asks for the cached copy.
func (h *PagesHandler) records(r *http.Request) []recognition.AttendanceRecord {
	var query listQuery
	if err := decodeForm(&query, r.URL.Query()); err == nil && query.Cached {
		return h.list.Records()
	}
	return h.list.Refresh(r.Context())
}

func pageFromState(ui workflow.UISnapshot) pageData {
	return pageData{
		Status:    ui.Status,
		Streaming: ui.Streaming,
		ModalOpen: ui.ModalOpen,
		StudentID: ui.StudentID,
		Results:   ui.Results,
	}
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// reportBusy keeps the running workflow's status and tells the user to wait.
func reportBusy(ui *workflow.UIState, err error) {
	if errors.Is(err, workflow.ErrBusy) {
		ui.SetStatus(constants.StatusBusy)
	}
}

// Home renders the landing page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	h.render(w, "home", pageFromState(page.UI.Snapshot()))
}

// SessionStart starts a new attendance session and returns to the landing page.
func (h *PagesHandler) SessionStart(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	if _, err := page.Session.Run(r.Context()); err != nil {
		reportBusy(page.UI, err)
	}
	redirect(w, r, "/")
}

// Enroll renders the upload enrollment form.
func (h *PagesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	h.render(w, "enroll", pageFromState(page.UI.Snapshot()))
}

// EnrollSubmit enrolls the uploaded photos.
func (h *PagesHandler) EnrollSubmit(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	if err := parseUploadForm(r); err != nil {
		page.UI.SetStatus(constants.StatusEnrollError)
		redirect(w, r, "/enroll")
		return
	}
	var form enrollForm
	if err := decodeForm(&form, r.Form); err != nil {
		page.UI.SetStatus(constants.StatusEnrollError)
		redirect(w, r, "/enroll")
		return
	}

	frames, err := readFrames(r, "files")
	if err != nil {
		log.Printf("enroll upload rejected: %v", err)
		if page.Enrollment.Hold(form.StudentID) {
			page.UI.SetStatus(constants.StatusEnrollError)
		}
		redirect(w, r, "/enroll")
		return
	}

	if _, err := page.Enrollment.Submit(r.Context(), form.StudentID, frames); err != nil {
		log.Printf("enroll %q failed: %v", sanitizeForLog(form.StudentID), err)
		reportBusy(page.UI, err)
	}
	redirect(w, r, "/enroll")
}

// Attendance renders the upload recognition page.
func (h *PagesHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	h.render(w, "attendance", pageFromState(page.UI.Snapshot()))
}

// AttendanceRecognize recognizes the uploaded photo.
func (h *PagesHandler) AttendanceRecognize(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	if err := parseUploadForm(r); err != nil {
		page.UI.SetStatus(constants.StatusError)
		redirect(w, r, "/attendance")
		return
	}
	frames, err := readFrames(r, "file")
	if err != nil {
		log.Printf("recognize upload rejected: %v", err)
		page.UI.SetStatus(constants.StatusError)
		redirect(w, r, "/attendance")
		return
	}

	if _, err := page.Recognition.Submit(r.Context(), frames[0]); err != nil {
		reportBusy(page.UI, err)
	}
	redirect(w, r, "/attendance")
}

// AttendanceReport downloads the report to the browser. On failure the
// attendance page shows the error instead.
func (h *PagesHandler) AttendanceReport(w http.ResponseWriter, r *http.Request) {
	page := sessionPage(w, r)
	if page == nil {
		return
	}
	if _, err := page.Report.Run(r.Context(), attachmentSaver{w: w}); err != nil {
		reportBusy(page.UI, err)
		redirect(w, r, "/attendance")
	}
}

// Logs renders the attendance list.
func (h *PagesHandler) Logs(w http.ResponseWriter, r *http.Request) {
	records := h.records(r)
	h.render(w, "logs", pageData{
		Records:      records,
		RefreshCount: h.list.RefreshCount(),
	})
}

// Dashboard renders the camera kiosk.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageFromState(h.kiosk.UI.Snapshot())
	data.Streaming = h.kiosk.Streaming()
	data.EnrollmentFrames = h.kiosk.Enrollment.Frames()
	data.Records = h.records(r)
	data.RefreshCount = h.list.RefreshCount()
	h.render(w, "dashboard", data)
}

// DashboardRecognize recognizes the current camera frame.
func (h *PagesHandler) DashboardRecognize(w http.ResponseWriter, r *http.Request) {
	if _, err := h.kiosk.Recognition.Run(r.Context()); err != nil {
		reportBusy(h.kiosk.UI, err)
	}
	redirect(w, r, "/dashboard?cached=true")
}

// DashboardEnroll enrolls the student typed into the modal from camera frames.
func (h *PagesHandler) DashboardEnroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/dashboard?cached=true")
		return
	}
	var form enrollForm
	if err := decodeForm(&form, r.PostForm); err != nil {
		redirect(w, r, "/dashboard?cached=true")
		return
	}

	if _, err := h.kiosk.Enrollment.Run(r.Context(), form.StudentID); err != nil {
		reportBusy(h.kiosk.UI, err)
	}
	redirect(w, r, "/dashboard?cached=true")
}

// DashboardModal opens or closes the enrollment modal.
func (h *PagesHandler) DashboardModal(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var form modalForm
	if err := decodeForm(&form, r.PostForm); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch form.Action {
	case "open":
		h.kiosk.OpenEnrollment()
	case "close":
		h.kiosk.CloseEnrollment()
	default:
		respondError(w, http.StatusBadRequest, "action must be open or close")
		return
	}
	redirect(w, r, "/dashboard?cached=true")
}

// DashboardFrame serves the current camera frame for the live preview.
func (h *PagesHandler) DashboardFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := h.kiosk.Preview(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "camera not streaming")
		return
	}
	w.Header().Set("Content-Type", frame.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(frame.Size()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(frame.Data)
}
