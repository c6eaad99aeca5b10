package entities

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            3000,
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 5,
		},
		Generation: GenerationConfig{
			TextModel:         "gemini-2.5-flash",
			DefaultSlideCount: 5,
			StockBaseURL:      "https://picsum.photos",
		},
		Export: ExportConfig{
			ArchiveScale:  2,
			GIFScale:      1,
			JPEGQuality:   92,
			FrameDelayMs:  2000,
			GIFBackground: "#ffffff",
		},
		Capture: CaptureConfig{Mode: "rasterizer"},
		Draft:   DraftConfig{DebounceMs: 1000, HistorySize: 50},
		Editor:  EditorConfig{ToolbarHeight: 50, HideGraceMs: 200},
		Browser: BrowserConfig{AutoOpen: true},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = -1 }, wantErr: "server config"},
		{name: "slide count too large", mutate: func(c *Config) { c.Generation.DefaultSlideCount = 11 }, wantErr: "generation config"},
		{name: "stock url without scheme", mutate: func(c *Config) { c.Generation.StockBaseURL = "picsum.photos" }, wantErr: "generation config"},
		{name: "jpeg quality", mutate: func(c *Config) { c.Export.JPEGQuality = 101 }, wantErr: "export config"},
		{name: "frame delay below bound", mutate: func(c *Config) { c.Export.FrameDelayMs = 50 }, wantErr: "frame delay"},
		{name: "bad gif background", mutate: func(c *Config) { c.Export.GIFBackground = "white" }, wantErr: "gif background"},
		{name: "capture mode", mutate: func(c *Config) { c.Capture.Mode = "gpu" }, wantErr: "capture config"},
		{name: "negative debounce", mutate: func(c *Config) { c.Draft.DebounceMs = -1 }, wantErr: "draft config"},
		{name: "negative toolbar height", mutate: func(c *Config) { c.Editor.ToolbarHeight = -5 }, wantErr: "editor config"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServerConfig_Durations(t *testing.T) {
	var s ServerConfig
	assert.Equal(t, 30*time.Second, s.GetReadTimeout())
	assert.Equal(t, 30*time.Second, s.GetWriteTimeout())
	assert.Equal(t, 5*time.Second, s.GetShutdownTimeout())
	assert.True(t, s.IsDevelopment())

	s = ServerConfig{ReadTimeout: 10, Environment: "production"}
	assert.Equal(t, 10*time.Second, s.GetReadTimeout())
	assert.False(t, s.IsDevelopment())
}

func TestExportConfig_Defaults(t *testing.T) {
	var e ExportConfig
	assert.Equal(t, 2.0, e.GetArchiveScale())
	assert.Equal(t, 1.0, e.GetGIFScale())
	assert.Equal(t, 92, e.GetJPEGQuality())
	assert.Equal(t, 2*time.Second, e.GetFrameDelay())
	assert.Equal(t, "#ffffff", e.GetGIFBackground())
	assert.Equal(t, 15*time.Minute, e.GetJobRetention())
}

func TestGenerationConfig_Defaults(t *testing.T) {
	var g GenerationConfig
	assert.Equal(t, 5, g.GetSlideCount())
	assert.Equal(t, time.Minute, g.GetTimeout())
	assert.False(t, g.Enabled())

	g.APIKey = "key"
	assert.True(t, g.Enabled())
}

func TestCaptureConfig_Defaults(t *testing.T) {
	var c CaptureConfig
	assert.Equal(t, CaptureRasterizer, c.GetMode())
	assert.Equal(t, 30*time.Second, c.GetTimeout())
	w, h := c.GetSlideSize()
	assert.Equal(t, 540, w)
	assert.Equal(t, 540, h)
}

func TestEditorAndDraftConfig_Defaults(t *testing.T) {
	var e EditorConfig
	assert.Equal(t, 50.0, e.GetToolbarHeight())
	assert.Equal(t, 200*time.Millisecond, e.GetHideGrace())

	var d DraftConfig
	assert.Equal(t, time.Second, d.GetDebounce())
	assert.Equal(t, DefaultHistorySize, d.GetHistorySize())
	assert.Equal(t, "/tmp/draft.db", DraftConfig{DatabasePath: "/tmp/draft.db"}.GetDatabasePath())
	assert.Contains(t, d.GetDatabasePath(), "draft.db")
}

func TestLoggingConfig(t *testing.T) {
	assert.Equal(t, LogLevelInfo, LoggingConfig{}.GetLevel())
	assert.Equal(t, LogLevelDebug, LoggingConfig{Level: "warn", Verbose: true}.GetLevel())

	err := LoggingConfig{File: "relative.log"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute")

	dir := t.TempDir()
	assert.NoError(t, LoggingConfig{File: filepath.Join(dir, "carousel.log")}.Validate())

	missing := filepath.Join(dir, "nope", "carousel.log")
	_, statErr := os.Stat(filepath.Dir(missing))
	require.True(t, os.IsNotExist(statErr))
	assert.Error(t, LoggingConfig{File: missing}.Validate())
}
