package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ATTENDANCE_CONFIG", "RECOGNITION_API_URL", "RECOGNITION_API_PREFIX", "ATTENDANCE_LIMIT",
		"CAMERA_DEVICE", "CAMERA_PRESET", "CAMERA_WIDTH", "CAMERA_HEIGHT", "CAMERA_QUALITY",
		"ENROLL_FRAMES", "REPORT_DIR", "WEB_HOST", "WEB_PORT", "WEB_SESSION_SECRET", "WEB_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Enrollment.Frames != 3 {
		t.Errorf("expected 3 enrollment frames, got %d", cfg.Enrollment.Frames)
	}
	if cfg.Camera.Quality != 0.9 {
		t.Errorf("expected default quality 0.9, got %f", cfg.Camera.Quality)
	}
	if cfg.Camera.Device != "0" {
		t.Errorf("expected default device '0', got '%s'", cfg.Camera.Device)
	}
	if cfg.API.AttendanceLimit != 100 {
		t.Errorf("expected attendance limit 100, got %d", cfg.API.AttendanceLimit)
	}
	if cfg.Report.FileName != "attendance_report.pdf" {
		t.Errorf("expected default report name, got '%s'", cfg.Report.FileName)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Web.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECOGNITION_API_URL", "http://localhost:8000/")
	t.Setenv("RECOGNITION_API_PREFIX", "/api")
	t.Setenv("ENROLL_FRAMES", "5")
	t.Setenv("CAMERA_QUALITY", "0.75")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://kiosk.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.URL != "http://localhost:8000" {
		t.Errorf("expected trailing slash trimmed, got '%s'", cfg.API.URL)
	}
	if cfg.API.Prefix != "/api" {
		t.Errorf("expected prefix '/api', got '%s'", cfg.API.Prefix)
	}
	if cfg.Enrollment.Frames != 5 {
		t.Errorf("expected 5 frames, got %d", cfg.Enrollment.Frames)
	}
	if cfg.Camera.Quality != 0.75 {
		t.Errorf("expected quality 0.75, got %f", cfg.Camera.Quality)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected allowed origins: %v", cfg.Web.AllowedOrigins)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENROLL_FRAMES", "invalid")
	t.Setenv("CAMERA_QUALITY", "1.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Enrollment.Frames != 3 {
		t.Errorf("expected fallback to 3 frames, got %d", cfg.Enrollment.Frames)
	}
	if cfg.Camera.Quality != 0.9 {
		t.Errorf("expected fallback quality 0.9, got %f", cfg.Camera.Quality)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "attendance.yaml")
	content := []byte(`
api:
  url: http://recognizer:8000
  prefix: api
camera:
  device: /dev/video2
enrollment:
  frames: 4
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("ATTENDANCE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.URL != "http://recognizer:8000" {
		t.Errorf("expected URL from file, got '%s'", cfg.API.URL)
	}
	if cfg.Camera.Device != "/dev/video2" {
		t.Errorf("expected device from file, got '%s'", cfg.Camera.Device)
	}
	if cfg.Enrollment.Frames != 4 {
		t.Errorf("expected 4 frames from file, got %d", cfg.Enrollment.Frames)
	}
	// Defaults survive for keys the file does not set
	if cfg.Camera.Quality != 0.9 {
		t.Errorf("expected default quality to survive, got %f", cfg.Camera.Quality)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("ATTENDANCE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_Preset(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMERA_PRESET", "vga")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Camera.Quality != 0.85 {
		t.Errorf("expected quality 0.85, got %f", cfg.Camera.Quality)
	}
}

func TestLoad_UnknownPreset(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMERA_PRESET", "does-not-exist")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if !strings.Contains(err.Error(), "vga") {
		t.Errorf("expected available presets in error, got %v", err)
	}
}

func TestLoad_EnrollmentFramesCapped(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENROLL_FRAMES", "50")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for too many enrollment frames")
	}
	if !strings.Contains(err.Error(), "invalid enrollment config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_EnrollmentFramesFromFileCapped(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "attendance.yaml")
	if err := os.WriteFile(path, []byte("enrollment:\n  frames: 11\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("ATTENDANCE_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Error("expected error for too many enrollment frames")
	}
}

func TestEnrollmentConfig_Validate(t *testing.T) {
	tests := []struct {
		frames   int
		problems int
	}{
		{0, 1},
		{1, 0},
		{3, 0},
		{constants.MaxEnrollmentFrames, 0},
		{constants.MaxEnrollmentFrames + 1, 1},
	}

	for _, tt := range tests {
		cfg := EnrollmentConfig{Frames: tt.frames}
		if problems := cfg.Validate(); len(problems) != tt.problems {
			t.Errorf("frames %d: expected %d problems, got %v", tt.frames, tt.problems, problems)
		}
	}
}

func TestPresetNames(t *testing.T) {
	want := []string{"1080p", "720p", "low-bandwidth", "vga"}
	if got := PresetNames(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCameraConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      CameraConfig
		problems int
	}{
		{"valid", CameraConfig{Device: "0", Width: 1280, Height: 720, Quality: 0.9}, 0},
		{"missing device", CameraConfig{Width: 1280, Height: 720, Quality: 0.9}, 1},
		{"tiny frame", CameraConfig{Device: "0", Width: 10, Height: 10, Quality: 0.9}, 2},
		{"zero quality", CameraConfig{Device: "0", Width: 1280, Height: 720}, 1},
		{"negative max dimension", CameraConfig{Device: "0", Width: 1280, Height: 720, Quality: 0.5, MaxDimension: -1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.cfg.Validate()
			if len(problems) != tt.problems {
				t.Errorf("expected %d problems, got %v", tt.problems, problems)
			}
		})
	}
}

func TestCameraConfig_DeviceIndex(t *testing.T) {
	cfg := CameraConfig{Device: "2"}
	if idx, ok := cfg.DeviceIndex(); !ok || idx != 2 {
		t.Errorf("expected index 2, got %d (%v)", idx, ok)
	}

	cfg.Device = "rtsp://camera.local/stream"
	if _, ok := cfg.DeviceIndex(); ok {
		t.Error("expected URL device to not be an index")
	}
}
