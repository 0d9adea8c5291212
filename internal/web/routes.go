package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/web/handlers"
	"github.com/kozaktomas/attendance-kiosk/internal/web/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/web/static"
)

// requestTimeout bounds everything but the event stream.
const requestTimeout = 2 * time.Minute

func (s *Server) setupRoutes() error {
	// Create handlers
	apiHandler := handlers.NewAPIHandler(s.kiosk, s.list)
	pagesHandler, err := handlers.NewPagesHandler(s.kiosk, s.list)
	if err != nil {
		return fmt.Errorf("creating pages: %w", err)
	}

	// Health check and assets
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(static.GetFileSystem())))

	// Event stream stays open as long as the browser keeps it
	s.router.Get("/api/v1/events", apiHandler.Events)

	s.router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		// Kiosk and list routes work on the shared kiosk page, no session required
		r.Get("/api/v1/attendance", apiHandler.Attendance)
		r.Get("/api/v1/dashboard/state", apiHandler.DashboardState)
		r.Get("/logs", pagesHandler.Logs)
		r.Get("/dashboard", pagesHandler.Dashboard)
		r.Post("/dashboard/recognize", pagesHandler.DashboardRecognize)
		r.Post("/dashboard/enroll", pagesHandler.DashboardEnroll)
		r.Post("/dashboard/modal", pagesHandler.DashboardModal)
		r.Get("/dashboard/frame.jpg", pagesHandler.DashboardFrame)

		// Upload forms keep their state in the browser session
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithSession(s.sessionManager))

			r.Post("/api/v1/recognize", apiHandler.Recognize)
			r.Post("/api/v1/enroll", apiHandler.Enroll)
			r.Get("/api/v1/report", apiHandler.Report)
			r.Post("/api/v1/session/start", apiHandler.StartSession)

			r.Get("/", pagesHandler.Home)
			r.Post("/session/start", pagesHandler.SessionStart)
			r.Get("/enroll", pagesHandler.Enroll)
			r.Post("/enroll", pagesHandler.EnrollSubmit)
			r.Get("/attendance", pagesHandler.Attendance)
			r.Post("/attendance/recognize", pagesHandler.AttendanceRecognize)
			r.Get("/attendance/report", pagesHandler.AttendanceReport)
		})
	})

	return nil
}
