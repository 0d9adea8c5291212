package config

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

type Config struct {
	API        APIConfig        `yaml:"api"`
	Camera     CameraConfig     `yaml:"camera"`
	Enrollment EnrollmentConfig `yaml:"enrollment"`
	Report     ReportConfig     `yaml:"report"`
	Web        WebConfig        `yaml:"web"`
	Presets    PresetsConfig    `yaml:"-"`
}

type APIConfig struct {
	URL             string `yaml:"url"`
	Prefix          string `yaml:"prefix"`           // path prefix in front of every endpoint (e.g. /api)
	AttendanceLimit int    `yaml:"attendance_limit" default:"100"`
}

// CameraConfig describes the capture device. Quality is the JPEG quality in the
// 0..1 range used by browsers' canvas.toBlob.
type CameraConfig struct {
	Device       string  `yaml:"device" default:"0"` // device index or video file/URL
	Preset       string  `yaml:"preset"`
	Width        int     `yaml:"width" default:"1280"`
	Height       int     `yaml:"height" default:"720"`
	Quality      float64 `yaml:"quality" default:"0.9"`
	MaxDimension int     `yaml:"max_dimension" default:"1920"` // 0 disables downscaling
}

type EnrollmentConfig struct {
	Frames int `yaml:"frames" default:"3"`
}

type ReportConfig struct {
	Dir      string `yaml:"dir" default:"."`
	FileName string `yaml:"file_name" default:"attendance_report.pdf"`
}

type WebConfig struct {
	Host           string   `yaml:"host" default:"0.0.0.0"`
	Port           int      `yaml:"port" default:"8080"`
	SessionSecret  string   `yaml:"-"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type PresetsConfig struct {
	Presets map[string]CameraPreset `yaml:"presets"`
}

type CameraPreset struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Quality      float64 `yaml:"quality"`
	MaxDimension int     `yaml:"max_dimension"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float in (0, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load builds the configuration from struct defaults, the optional YAML file
// named by ATTENDANCE_CONFIG and finally the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("could not apply defaults: %w", err)
	}
	cfg.Presets = loadPresets()

	if path := os.Getenv("ATTENDANCE_CONFIG"); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-provided config path
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	cfg.API.URL = strings.TrimRight(envString("RECOGNITION_API_URL", cfg.API.URL), "/")
	cfg.API.Prefix = envString("RECOGNITION_API_PREFIX", cfg.API.Prefix)
	cfg.API.AttendanceLimit = envInt("ATTENDANCE_LIMIT", cfg.API.AttendanceLimit)

	cfg.Camera.Device = envString("CAMERA_DEVICE", cfg.Camera.Device)
	cfg.Camera.Preset = envString("CAMERA_PRESET", cfg.Camera.Preset)
	if cfg.Camera.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Camera.Preset); err != nil {
			return nil, err
		}
	}
	cfg.Camera.Width = envInt("CAMERA_WIDTH", cfg.Camera.Width)
	cfg.Camera.Height = envInt("CAMERA_HEIGHT", cfg.Camera.Height)
	cfg.Camera.Quality = envFloat("CAMERA_QUALITY", cfg.Camera.Quality)

	cfg.Enrollment.Frames = envInt("ENROLL_FRAMES", cfg.Enrollment.Frames)

	cfg.Report.Dir = envString("REPORT_DIR", cfg.Report.Dir)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.SessionSecret = os.Getenv("WEB_SESSION_SECRET")
	if env := os.Getenv("WEB_ALLOWED_ORIGINS"); env != "" {
		cfg.Web.AllowedOrigins = nil
		for o := range strings.SplitSeq(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Web.AllowedOrigins = append(cfg.Web.AllowedOrigins, o)
			}
		}
	}

	if problems := cfg.Camera.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid camera config: %s", strings.Join(problems, "; "))
	}
	if problems := cfg.Enrollment.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid enrollment config: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// ApplyPreset overwrites the camera settings with a named preset.
func (c *Config) ApplyPreset(name string) error {
	preset, ok := c.Presets.Presets[name]
	if !ok {
		return fmt.Errorf("unknown camera preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	c.Camera.Preset = name
	c.Camera.Width = preset.Width
	c.Camera.Height = preset.Height
	c.Camera.Quality = preset.Quality
	c.Camera.MaxDimension = preset.MaxDimension
	return nil
}

func loadPresets() PresetsConfig {
	var presets PresetsConfig
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded presets.yaml: " + err.Error())
	}
	return presets
}

// PresetNames returns the sorted names of the embedded camera presets.
func PresetNames() []string {
	return slices.Sorted(maps.Keys(loadPresets().Presets))
}

// Validate checks the frame count of one enrollment.
func (c *EnrollmentConfig) Validate() []string {
	if c.Frames < 1 || c.Frames > constants.MaxEnrollmentFrames {
		return []string{fmt.Sprintf("frames must be between 1 and %d", constants.MaxEnrollmentFrames)}
	}
	return nil
}

// Validate checks if the camera values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *CameraConfig) Validate() []string {
	var problems []string
	if c.Device == "" {
		problems = append(problems, "device is required")
	}
	if c.Width < 160 || c.Width > 4096 {
		problems = append(problems, "width must be between 160 and 4096")
	}
	if c.Height < 120 || c.Height > 2160 {
		problems = append(problems, "height must be between 120 and 2160")
	}
	if c.Quality <= 0 || c.Quality > 1 {
		problems = append(problems, "quality must be in (0, 1]")
	}
	if c.MaxDimension < 0 {
		problems = append(problems, "max_dimension must not be negative")
	}
	return problems
}

// DeviceIndex returns the numeric camera index when Device is an integer.
func (c *CameraConfig) DeviceIndex() (int, bool) {
	n, err := strconv.Atoi(c.Device)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
