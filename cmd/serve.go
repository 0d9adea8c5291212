package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the Attendance Kiosk web server.

The server opens the camera and serves the kiosk page, which recognizes
students and enrolls new ones, along with upload-based pages for enrollment,
recognition, the attendance log and the report download.
The camera is released when the server shuts down.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
	serveCmd.Flags().Bool("no-camera", false, "Serve without a camera (upload pages only)")
	addCameraFlags(serveCmd)
}

// resolveServeHostPort applies explicitly set flags over the configuration.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	resolveServeHostPort(cmd, cfg)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var open capture.OpenFunc
	if !mustGetBool(cmd, "no-camera") {
		open = cameraOpener(cmd, cfg)
		fmt.Printf("Opening camera %s (%dx%d)...\n", cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := web.NewServer(ctx, cfg, client, open)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if open != nil && !server.Kiosk().Streaming() {
		fmt.Printf("Warning: camera unavailable, the kiosk page will show %q\n", server.Kiosk().UI.Status())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Attendance Kiosk on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Recognition service: %s\n", client.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	// Wait for the camera to be released
	<-shutdownDone
	return nil
}
