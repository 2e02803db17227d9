// Package config loads server settings from a .env file and the process
// environment. Every key carries the CHART_MCP_ prefix; real environment
// variables win over values from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/chart-a11y-mcp/internal/detection"
	"github.com/ironsheep/chart-a11y-mcp/internal/gesture"
)

const (
	// EnvPathVar names an alternative .env file, used when none sits next
	// to the executable.
	EnvPathVar = "CHART_MCP_ENV"

	prefix = "CHART_MCP_"
)

// LoadOptions overrides parts of the lookup.
type LoadOptions struct {
	// EnvPath, when set, is read instead of searching for a .env file.
	EnvPath string
}

// Config is the full server configuration.
type Config struct {
	// EnvPath is the .env file that was read, if any.
	EnvPath string

	// Model
	ModelBackend  string
	ModelPath     string
	ModelURL      string
	ModelTimeout  time.Duration
	InputSize     int
	ConfThreshold float64
	IoUThreshold  float64
	ClassTable    string
	Transpose     bool
	InitRetry     time.Duration

	// Capture and detection scheduling
	CaptureBackend    string // "screen" or "file"
	CaptureFile       string
	CaptureInterval   time.Duration
	DetectDebounce    time.Duration
	DetectMinInterval time.Duration

	// Panel viewport used when no host reports a size.
	ViewportWidth  int
	ViewportHeight int

	// Gestures
	Density          float64
	SwipeThreshold   float64
	ScrollThreshold  float64
	TouchSlop        float64
	LongPressTimeout time.Duration
	DoubleTapTimeout time.Duration
	GesturesEnabled  bool
	GestureBindings  string // KEY=command pairs, comma separated

	// Volume-key shortcut
	VolumeEnabled bool
	VolumePattern string
	VolumeWindow  time.Duration

	// Voice commands
	VoiceEnabled bool
	VoicePhrases string // phrase=command pairs, comma separated

	// Logging
	LogLevel          string
	EnableFileLogging bool
	LogFile           string

	// Text extraction
	OCREnabled  bool
	OCRLanguage string
	TessdataDir string

	// AnnotateDir receives debug renderings of each detection pass.
	AnnotateDir string
}

// Default returns the built-in settings.
func Default() *Config {
	det := detection.DefaultConfig()
	gc := gesture.DefaultConfig()
	kc := gesture.DefaultComboConfig()
	return &Config{
		ModelBackend:      detection.BackendNone,
		ModelURL:          "http://127.0.0.1:8765",
		ModelTimeout:      10 * time.Second,
		InputSize:         det.InputSize,
		ConfThreshold:     det.ConfThreshold,
		IoUThreshold:      det.IoUThreshold,
		ClassTable:        det.Classes.Name,
		Transpose:         det.Transpose,
		InitRetry:         det.InitRetry,
		CaptureBackend:    "file",
		CaptureInterval:   1000 * time.Millisecond,
		DetectDebounce:    250 * time.Millisecond,
		DetectMinInterval: 650 * time.Millisecond,
		ViewportWidth:     1080,
		ViewportHeight:    1920,
		Density:           gc.Density,
		SwipeThreshold:    gc.SwipeThreshold,
		ScrollThreshold:   gc.ScrollThreshold,
		TouchSlop:         gc.TouchSlop,
		LongPressTimeout:  gc.LongPressTimeout,
		DoubleTapTimeout:  gc.DoubleTapTimeout,
		GesturesEnabled:   true,
		VolumeEnabled:     true,
		VolumePattern:     string(kc.Pattern),
		VolumeWindow:      kc.Window,
		VoiceEnabled:      true,
		LogLevel:          "info",
		OCRLanguage:       "eng",
	}
}

// Load reads configuration from the default sources.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions reads configuration in priority order: process
// environment, then the .env file (opts.EnvPath, else .env beside the
// executable, else the file named by CHART_MCP_ENV), then defaults.
//
// Malformed values are reported together; the returned Config still holds
// defaults for them.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	cfg := Default()

	envPath := strings.TrimSpace(opts.EnvPath)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
		cfg.EnvPath = envPath
	}

	p := parser{}
	p.str("MODEL_BACKEND", &cfg.ModelBackend)
	p.str("MODEL_PATH", &cfg.ModelPath)
	p.str("MODEL_URL", &cfg.ModelURL)
	p.duration("MODEL_TIMEOUT", &cfg.ModelTimeout)
	p.integer("INPUT_SIZE", &cfg.InputSize)
	p.float("CONF_THRESHOLD", &cfg.ConfThreshold)
	p.float("IOU_THRESHOLD", &cfg.IoUThreshold)
	p.str("CLASS_TABLE", &cfg.ClassTable)
	p.boolean("TRANSPOSE", &cfg.Transpose)
	p.duration("INIT_RETRY", &cfg.InitRetry)

	p.str("CAPTURE_BACKEND", &cfg.CaptureBackend)
	p.str("CAPTURE_FILE", &cfg.CaptureFile)
	p.duration("CAPTURE_INTERVAL", &cfg.CaptureInterval)
	p.duration("DETECT_DEBOUNCE", &cfg.DetectDebounce)
	p.duration("DETECT_MIN_INTERVAL", &cfg.DetectMinInterval)
	p.integer("VIEWPORT_WIDTH", &cfg.ViewportWidth)
	p.integer("VIEWPORT_HEIGHT", &cfg.ViewportHeight)

	p.float("DENSITY", &cfg.Density)
	p.float("SWIPE_THRESHOLD", &cfg.SwipeThreshold)
	p.float("SCROLL_THRESHOLD", &cfg.ScrollThreshold)
	p.float("TOUCH_SLOP", &cfg.TouchSlop)
	p.duration("LONG_PRESS_TIMEOUT", &cfg.LongPressTimeout)
	p.duration("DOUBLE_TAP_TIMEOUT", &cfg.DoubleTapTimeout)
	p.boolean("GESTURES_ENABLED", &cfg.GesturesEnabled)
	p.str("GESTURE_BINDINGS", &cfg.GestureBindings)

	p.boolean("VOLUME_ENABLED", &cfg.VolumeEnabled)
	p.str("VOLUME_PATTERN", &cfg.VolumePattern)
	p.duration("VOLUME_WINDOW", &cfg.VolumeWindow)

	p.boolean("VOICE_ENABLED", &cfg.VoiceEnabled)
	p.str("VOICE_PHRASES", &cfg.VoicePhrases)

	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.boolean("ENABLE_FILE_LOGGING", &cfg.EnableFileLogging)
	p.str("LOG_FILE", &cfg.LogFile)

	p.boolean("OCR_ENABLED", &cfg.OCREnabled)
	p.str("OCR_LANGUAGE", &cfg.OCRLanguage)
	p.str("TESSDATA_DIR", &cfg.TessdataDir)
	p.str("ANNOTATE_DIR", &cfg.AnnotateDir)

	if cfg.EnableFileLogging && cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile()
	}

	if err := cfg.Validate(); err != nil {
		p.errs = append(p.errs, err)
	}
	return cfg, errors.Join(p.errs...)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.InputSize <= 0 {
		errs = append(errs, fmt.Errorf("%sINPUT_SIZE must be positive, got %d", prefix, c.InputSize))
	}
	if c.ConfThreshold < 0 || c.ConfThreshold > 1 {
		errs = append(errs, fmt.Errorf("%sCONF_THRESHOLD must be in [0,1], got %v", prefix, c.ConfThreshold))
	}
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		errs = append(errs, fmt.Errorf("%sIOU_THRESHOLD must be in [0,1], got %v", prefix, c.IoUThreshold))
	}
	if c.Density <= 0 {
		errs = append(errs, fmt.Errorf("%sDENSITY must be positive, got %v", prefix, c.Density))
	}
	if _, err := detection.LookupClassTable(c.ClassTable); err != nil {
		errs = append(errs, err)
	}
	if _, err := gesture.ParseComboPattern(c.VolumePattern); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.CaptureBackend) {
	case "screen", "file":
	default:
		errs = append(errs, fmt.Errorf("unknown capture backend: %s", c.CaptureBackend))
	}
	return errors.Join(errs...)
}

// DetectorConfig returns the detection parameters.
func (c *Config) DetectorConfig() (detection.Config, error) {
	classes, err := detection.LookupClassTable(c.ClassTable)
	if err != nil {
		return detection.Config{}, err
	}
	return detection.Config{
		InputSize:     c.InputSize,
		ConfThreshold: c.ConfThreshold,
		IoUThreshold:  c.IoUThreshold,
		Classes:       classes,
		Transpose:     c.Transpose,
		InitRetry:     c.InitRetry,
	}, nil
}

// RunnerConfig returns the inference backend settings.
func (c *Config) RunnerConfig() detection.RunnerConfig {
	return detection.RunnerConfig{
		Backend:   c.ModelBackend,
		ModelPath: c.ModelPath,
		URL:       c.ModelURL,
		Timeout:   c.ModelTimeout,
	}
}

// GestureConfig returns recognizer thresholds.
func (c *Config) GestureConfig() gesture.Config {
	g := gesture.DefaultConfig()
	g.Density = c.Density
	g.SwipeThreshold = c.SwipeThreshold
	g.ScrollThreshold = c.ScrollThreshold
	g.TouchSlop = c.TouchSlop
	g.LongPressTimeout = c.LongPressTimeout
	g.DoubleTapTimeout = c.DoubleTapTimeout
	return g
}

// ComboConfig returns the volume-key shortcut settings.
func (c *Config) ComboConfig() (gesture.ComboConfig, error) {
	pattern, err := gesture.ParseComboPattern(c.VolumePattern)
	if err != nil {
		return gesture.ComboConfig{}, err
	}
	k := gesture.DefaultComboConfig()
	k.Pattern = pattern
	if c.VolumeWindow > 0 {
		k.Window = c.VolumeWindow
	}
	return k, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func defaultLogFile() string {
	if execPath, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(execPath), "chart-a11y-mcp.log")
	}
	return "chart-a11y-mcp.log"
}

// parser reads prefixed environment variables, leaving the target untouched
// when a variable is unset and recording malformed values.
type parser struct {
	errs []error
}

func (p *parser) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(prefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) fail(key, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("invalid %s%s=%q: %w", prefix, key, v, err))
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.lookup(key); ok {
		*dst = v
	}
}

func (p *parser) integer(key string, dst *int) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) float(key string, dst *float64) {
	if v, ok := p.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (p *parser) boolean(key string, dst *bool) {
	if v, ok := p.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = b
	}
}

// duration accepts Go durations ("650ms", "30s") or bare milliseconds.
func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Millisecond
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}
