package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/web/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/workflow"
)

// Backend is the recognition service as seen by the web UI.
// *recognition.Client satisfies it.
type Backend interface {
	workflow.API
	attendance.Lister
}

// Server represents the web server
type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	kiosk          *workflow.Page
	list           *attendance.View
	sessionManager *middleware.SessionManager
}

// NewServer mounts the kiosk page, which takes the camera opened by open (nil
// for no camera), and creates the web server. The camera is released by Shutdown.
func NewServer(ctx context.Context, cfg *config.Config, backend Backend, open capture.OpenFunc) (*Server, error) {
	r := chi.NewRouter()

	list := attendance.NewView(backend, cfg.API.AttendanceLimit)

	pageOptions := workflow.PageOptions{
		Camera:           capture.Options{MaxDimension: cfg.Camera.MaxDimension},
		Quality:          cfg.Camera.Quality,
		EnrollmentFrames: cfg.Enrollment.Frames,
	}
	kioskOptions := pageOptions
	kioskOptions.Open = open
	kioskOptions.LoadList = true
	kiosk := workflow.Mount(ctx, backend, list, kioskOptions)

	// Browser sessions get their own page without a camera for the upload forms.
	// The list pages fetch on render, so these pages do not load it on mount.
	sessionManager := middleware.NewSessionManager(cfg.Web.SessionSecret, func(ctx context.Context) *workflow.Page {
		return workflow.Mount(ctx, backend, list, pageOptions)
	})

	s := &Server{
		config:         cfg,
		router:         r,
		kiosk:          kiosk,
		list:           list,
		sessionManager: sessionManager,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	if err := s.setupRoutes(); err != nil {
		kiosk.Unmount()
		sessionManager.Stop()
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for SSE and enrollment uploads
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops serving, releases the camera and unmounts all session pages.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	err := s.httpServer.Shutdown(ctx)

	s.sessionManager.Stop()
	s.kiosk.Unmount()

	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Kiosk returns the camera page.
func (s *Server) Kiosk() *workflow.Page {
	return s.kiosk
}
