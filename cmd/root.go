package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/capture/opencv"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/recognition"
	"github.com/spf13/cobra"
)

var captureDir string

var rootCmd = &cobra.Command{
	Use:   "attendance-kiosk",
	Short: "Camera kiosk and CLI for a face recognition attendance service",
	Long: `Attendance Kiosk talks to a face recognition attendance service.

It serves a browser kiosk that recognizes students from the camera and enrolls
new ones, and offers the same operations from the command line.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig loads the configuration and applies the --preset flag when the
// command has one.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Lookup("preset") != nil {
		if preset := mustGetString(cmd, "preset"); preset != "" {
			if err := cfg.ApplyPreset(preset); err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

// newClient connects to the recognition service named in the configuration.
func newClient(cfg *config.Config) (*recognition.Client, error) {
	if cfg.API.URL == "" {
		return nil, fmt.Errorf("RECOGNITION_API_URL environment variable is required")
	}
	client, err := recognition.NewWithCapture(cfg.API.URL, cfg.API.Prefix, captureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognition client: %w", err)
	}
	return client, nil
}

// addCameraFlags registers the flags choosing where frames come from.
func addCameraFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "Replay this still image instead of opening the camera")
	cmd.Flags().String("preset", "", "Camera preset ("+strings.Join(config.PresetNames(), ", ")+")")
}

// cameraOpener returns how to open the camera for this command: the --image
// still when given, the configured OpenCV device otherwise.
func cameraOpener(cmd *cobra.Command, cfg *config.Config) capture.OpenFunc {
	if image := mustGetString(cmd, "image"); image != "" {
		return capture.OpenStill(image)
	}
	return opencv.Opener(cfg.Camera)
}

func cameraOptions(cfg *config.Config) capture.Options {
	return capture.Options{MaxDimension: cfg.Camera.MaxDimension}
}

// readImageFile loads an image from disk as an upload frame.
func readImageFile(path string) (*capture.Frame, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided image path
	if err != nil {
		return nil, fmt.Errorf("cannot read image %s: %w", path, err)
	}
	frame, err := capture.FromUpload(path, data)
	if err != nil {
		return nil, fmt.Errorf("cannot use image %s: %w", path, err)
	}
	return frame, nil
}

// outputJSON prints data as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
