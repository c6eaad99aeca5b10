package entities

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Generation GenerationConfig `toml:"generation"`
	Export     ExportConfig     `toml:"export"`
	Capture    CaptureConfig    `toml:"capture"`
	Draft      DraftConfig      `toml:"draft"`
	Editor     EditorConfig     `toml:"editor"`
	Browser    BrowserConfig    `toml:"browser"`
	Logging    LoggingConfig    `toml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Draft.Validate(); err != nil {
		return fmt.Errorf("draft config: %w", err)
	}

	if err := c.Editor.Validate(); err != nil {
		return fmt.Errorf("editor config: %w", err)
	}

	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// DefaultPort is the editor's listen port when none is configured
const DefaultPort = 4040

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	Environment     string   `toml:"environment"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" {
		if ip := net.ParseIP(s.Host); ip == nil {
			if _, err := net.LookupHost(s.Host); err != nil {
				return fmt.Errorf("invalid host: %w", err)
			}
		}
	}

	if s.ReadTimeout < 0 {
		return errors.New("read timeout must be non-negative")
	}

	if s.WriteTimeout < 0 {
		return errors.New("write timeout must be non-negative")
	}

	if s.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must be non-negative")
	}

	// Validate CORS origins
	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		// Allow wildcard origin for development
		if origin == "*" {
			continue
		}
		// Basic URL validation
		if len(origin) < 7 || (!strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://")) {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins, defaulting to the editor's own loopback origins
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		port := s.Port
		if port == 0 {
			port = DefaultPort
		}
		return []string{
			fmt.Sprintf("http://localhost:%d", port),
			fmt.Sprintf("http://127.0.0.1:%d", port),
		}
	}
	return s.CORSOrigins
}

// IsDevelopment returns true if the server is running in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == ""
}

// GenerationConfig contains generative content service configuration
type GenerationConfig struct {
	APIKey            string `toml:"api_key"`
	TextModel         string `toml:"text_model"`
	ImageModel        string `toml:"image_model"`
	DefaultSlideCount int    `toml:"default_slide_count"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	StockBaseURL      string `toml:"stock_base_url"`
}

// Validate validates generation configuration
func (g GenerationConfig) Validate() error {
	if g.DefaultSlideCount < 0 || g.DefaultSlideCount > MaxSlideCount {
		return fmt.Errorf("default slide count must be between 1 and %d", MaxSlideCount)
	}

	if g.TimeoutSeconds < 0 {
		return errors.New("generation timeout must be non-negative")
	}

	if g.StockBaseURL != "" && !strings.HasPrefix(g.StockBaseURL, "http://") && !strings.HasPrefix(g.StockBaseURL, "https://") {
		return fmt.Errorf("stock base URL must start with http:// or https://: %s", g.StockBaseURL)
	}

	return nil
}

// GetTimeout returns the per-request generation timeout
func (g GenerationConfig) GetTimeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// GetSlideCount returns the default number of generated slides
func (g GenerationConfig) GetSlideCount() int {
	if g.DefaultSlideCount <= 0 {
		return 5
	}
	return g.DefaultSlideCount
}

// Enabled reports whether an API key is configured
func (g GenerationConfig) Enabled() bool {
	return g.APIKey != ""
}

// ExportConfig contains export pipeline configuration
type ExportConfig struct {
	ArchiveScale  float64 `toml:"archive_scale"`
	GIFScale      float64 `toml:"gif_scale"`
	JPEGQuality   int     `toml:"jpeg_quality"`
	FrameDelayMs  int     `toml:"frame_delay_ms"`
	GIFBackground string  `toml:"gif_background"`
	JobRetention  int     `toml:"job_retention_minutes"`
}

// Validate validates export configuration
func (e ExportConfig) Validate() error {
	if e.ArchiveScale < 0 || e.GIFScale < 0 {
		return errors.New("export scale factors must be non-negative")
	}

	if e.JPEGQuality < 0 || e.JPEGQuality > 100 {
		return errors.New("jpeg quality must be between 1 and 100")
	}

	if e.FrameDelayMs != 0 && (e.FrameDelayMs < MinFrameDelayMs || e.FrameDelayMs > MaxFrameDelayMs) {
		return fmt.Errorf("frame delay must be between %dms and %dms", MinFrameDelayMs, MaxFrameDelayMs)
	}

	if e.GIFBackground != "" {
		if _, err := ParseHexColor(e.GIFBackground); err != nil {
			return fmt.Errorf("gif background: %w", err)
		}
	}

	return nil
}

// GetArchiveScale returns the zip upscale factor
func (e ExportConfig) GetArchiveScale() float64 {
	if e.ArchiveScale <= 0 {
		return 2
	}
	return e.ArchiveScale
}

// GetGIFScale returns the animated export upscale factor
func (e ExportConfig) GetGIFScale() float64 {
	if e.GIFScale <= 0 {
		return 1
	}
	return e.GIFScale
}

// GetJPEGQuality returns the JPEG encoder quality
func (e ExportConfig) GetJPEGQuality() int {
	if e.JPEGQuality <= 0 {
		return 92
	}
	return e.JPEGQuality
}

// GetFrameDelay returns the default inter-frame delay
func (e ExportConfig) GetFrameDelay() time.Duration {
	if e.FrameDelayMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(e.FrameDelayMs) * time.Millisecond
}

// GetGIFBackground returns the colour forced behind transparent frames
func (e ExportConfig) GetGIFBackground() string {
	if e.GIFBackground == "" {
		return "#ffffff"
	}
	return e.GIFBackground
}

// GetJobRetention returns how long finished jobs are kept
func (e ExportConfig) GetJobRetention() time.Duration {
	if e.JobRetention <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(e.JobRetention) * time.Minute
}

// CaptureMode selects the capture primitive
type CaptureMode string

const (
	CaptureRasterizer CaptureMode = "rasterizer"
	CaptureBrowser    CaptureMode = "browser"
)

// CaptureConfig contains capture primitive configuration
type CaptureConfig struct {
	Mode           string `toml:"mode"`
	BrowserBin     string `toml:"browser_bin"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SlideWidth     int    `toml:"slide_width"`
	SlideHeight    int    `toml:"slide_height"`
}

// Validate validates capture configuration
func (c CaptureConfig) Validate() error {
	switch CaptureMode(c.Mode) {
	case CaptureRasterizer, CaptureBrowser, "":
	default:
		return fmt.Errorf("invalid capture mode: %s (must be rasterizer or browser)", c.Mode)
	}

	if c.SlideWidth < 0 || c.SlideHeight < 0 {
		return errors.New("slide dimensions must be non-negative")
	}

	if c.TimeoutSeconds < 0 {
		return errors.New("capture timeout must be non-negative")
	}

	return nil
}

// GetMode returns the capture mode with default
func (c CaptureConfig) GetMode() CaptureMode {
	if c.Mode == "" {
		return CaptureRasterizer
	}
	return CaptureMode(c.Mode)
}

// GetTimeout returns the per-capture timeout
func (c CaptureConfig) GetTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetSlideSize returns the on-screen slide size in CSS pixels
func (c CaptureConfig) GetSlideSize() (width, height int) {
	width, height = c.SlideWidth, c.SlideHeight
	if width <= 0 {
		width = 540
	}
	if height <= 0 {
		height = 540
	}
	return width, height
}

// DraftConfig contains draft persistence configuration
type DraftConfig struct {
	DatabasePath string `toml:"database_path"`
	DebounceMs   int    `toml:"debounce_ms"`
	HistorySize  int    `toml:"history_size"`
}

// Validate validates draft configuration
func (d DraftConfig) Validate() error {
	if d.DebounceMs < 0 {
		return errors.New("draft debounce must be non-negative")
	}

	if d.HistorySize < 0 {
		return errors.New("history size must be non-negative")
	}

	return nil
}

// GetDebounce returns the autosave debounce as a duration
func (d DraftConfig) GetDebounce() time.Duration {
	if d.DebounceMs <= 0 {
		return time.Second
	}
	return time.Duration(d.DebounceMs) * time.Millisecond
}

// GetHistorySize returns the undo history capacity
func (d DraftConfig) GetHistorySize() int {
	if d.HistorySize <= 0 {
		return DefaultHistorySize
	}
	return d.HistorySize
}

// GetDatabasePath returns the draft database path
func (d DraftConfig) GetDatabasePath() string {
	if d.DatabasePath != "" {
		return d.DatabasePath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "carousel.db"
	}
	return filepath.Join(homeDir, ".config", "carousel", "draft.db")
}

// EditorConfig contains inline editor configuration
type EditorConfig struct {
	ToolbarHeight int `toml:"toolbar_height"`
	HideGraceMs   int `toml:"hide_grace_ms"`
}

// Validate validates editor configuration
func (e EditorConfig) Validate() error {
	if e.ToolbarHeight < 0 {
		return errors.New("toolbar height must be non-negative")
	}

	if e.HideGraceMs < 0 {
		return errors.New("toolbar hide grace must be non-negative")
	}

	return nil
}

// GetToolbarHeight returns the toolbar placement threshold in pixels
func (e EditorConfig) GetToolbarHeight() float64 {
	if e.ToolbarHeight <= 0 {
		return 50
	}
	return float64(e.ToolbarHeight)
}

// GetHideGrace returns the delay before the toolbar hides after blur
func (e EditorConfig) GetHideGrace() time.Duration {
	if e.HideGraceMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(e.HideGraceMs) * time.Millisecond
}

// BrowserConfig contains browser launch configuration
type BrowserConfig struct {
	AutoOpen bool   `toml:"auto_open"`
	Browser  string `toml:"browser"`
}

// Validate validates browser configuration
func (b BrowserConfig) Validate() error {
	// Browser name validation is minimal since it's platform-dependent
	return nil
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	Verbose    bool   `toml:"verbose"`     // Enable verbose logging
	JSONFormat bool   `toml:"json_format"` // Output logs in JSON format
	File       string `toml:"file"`        // Log to file (optional)
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	case "":
		// Empty is okay, will use default
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}

	if l.File != "" {
		if !filepath.IsAbs(l.File) {
			return errors.New("log file path must be absolute")
		}

		dir := filepath.Dir(l.File)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("log file directory does not exist: %s", dir)
		}
	}

	return nil
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Verbose {
		return LogLevelDebug
	}
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
