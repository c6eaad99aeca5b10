package config

import (
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ConfigMerger implements the ConfigMerger interface
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges multiple configurations with later configs taking precedence
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	if len(configs) == 0 {
		return GetDefaultConfig()
	}

	result := deepCopy(configs[0])
	if result == nil {
		result = &entities.Config{}
	}

	for i := 1; i < len(configs); i++ {
		if configs[i] != nil {
			m.mergeInto(result, configs[i])
		}
	}

	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}

	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}

	if noBrowser, ok := flags["no-browser"].(bool); ok {
		result.Browser.AutoOpen = !noBrowser
	}

	if verbose, ok := flags["verbose"].(bool); ok && verbose {
		result.Logging.Verbose = true
	}

	if mode, ok := flags["capture"].(string); ok && mode != "" {
		result.Capture.Mode = mode
	}

	if db, ok := flags["draft-db"].(string); ok && db != "" {
		result.Draft.DatabasePath = db
	}

	if delay, ok := flags["delay"].(time.Duration); ok && delay > 0 {
		result.Export.FrameDelayMs = int(entities.NormalizeFrameDelay(delay).Milliseconds())
	}

	if slides, ok := flags["slides"].(int); ok && slides > 0 {
		result.Generation.DefaultSlideCount = slides
	}

	return result
}

// ApplyEnvVars applies environment variable overrides to a configuration
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	if host := os.Getenv("CAROUSEL_HOST"); host != "" {
		result.Server.Host = host
	}

	if portStr := os.Getenv("CAROUSEL_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			result.Server.Port = port
		}
	}

	if key := apiKeyFromEnv(); key != "" {
		result.Generation.APIKey = key
	}

	if model := os.Getenv("CAROUSEL_TEXT_MODEL"); model != "" {
		result.Generation.TextModel = model
	}

	if model := os.Getenv("CAROUSEL_IMAGE_MODEL"); model != "" {
		result.Generation.ImageModel = model
	}

	if mode := os.Getenv("CAROUSEL_CAPTURE_MODE"); mode != "" {
		result.Capture.Mode = mode
	}

	if bin := os.Getenv("CAROUSEL_BROWSER_BIN"); bin != "" {
		result.Capture.BrowserBin = bin
	}

	if db := os.Getenv("CAROUSEL_DRAFT_DB"); db != "" {
		result.Draft.DatabasePath = db
	}

	if noBrowserStr := os.Getenv("CAROUSEL_NO_BROWSER"); noBrowserStr != "" {
		if noBrowser, err := strconv.ParseBool(noBrowserStr); err == nil {
			result.Browser.AutoOpen = !noBrowser
		}
	}

	if browser := os.Getenv("CAROUSEL_BROWSER"); browser != "" {
		result.Browser.Browser = browser
	}

	if level := os.Getenv("CAROUSEL_LOG_LEVEL"); level != "" {
		result.Logging.Level = level
	}

	return result
}

// mergeInto merges source configuration into target configuration. Zero
// values in source leave the target unchanged.
func (m *ConfigMerger) mergeInto(target, source *entities.Config) {
	// Server config
	setIfNonZero(&target.Server.Port, source.Server.Port)
	setIfNonZero(&target.Server.Host, source.Server.Host)
	setIfNonZero(&target.Server.ReadTimeout, source.Server.ReadTimeout)
	setIfNonZero(&target.Server.WriteTimeout, source.Server.WriteTimeout)
	setIfNonZero(&target.Server.ShutdownTimeout, source.Server.ShutdownTimeout)
	setIfNonZero(&target.Server.Environment, source.Server.Environment)
	if len(source.Server.CORSOrigins) > 0 {
		target.Server.CORSOrigins = slices.Clone(source.Server.CORSOrigins)
	}

	// Generation config
	setIfNonZero(&target.Generation.APIKey, source.Generation.APIKey)
	setIfNonZero(&target.Generation.TextModel, source.Generation.TextModel)
	setIfNonZero(&target.Generation.ImageModel, source.Generation.ImageModel)
	setIfNonZero(&target.Generation.DefaultSlideCount, source.Generation.DefaultSlideCount)
	setIfNonZero(&target.Generation.TimeoutSeconds, source.Generation.TimeoutSeconds)
	setIfNonZero(&target.Generation.StockBaseURL, source.Generation.StockBaseURL)

	// Export config
	setIfNonZero(&target.Export.ArchiveScale, source.Export.ArchiveScale)
	setIfNonZero(&target.Export.GIFScale, source.Export.GIFScale)
	setIfNonZero(&target.Export.JPEGQuality, source.Export.JPEGQuality)
	setIfNonZero(&target.Export.FrameDelayMs, source.Export.FrameDelayMs)
	setIfNonZero(&target.Export.GIFBackground, source.Export.GIFBackground)
	setIfNonZero(&target.Export.JobRetention, source.Export.JobRetention)

	// Capture config
	setIfNonZero(&target.Capture.Mode, source.Capture.Mode)
	setIfNonZero(&target.Capture.BrowserBin, source.Capture.BrowserBin)
	setIfNonZero(&target.Capture.TimeoutSeconds, source.Capture.TimeoutSeconds)
	setIfNonZero(&target.Capture.SlideWidth, source.Capture.SlideWidth)
	setIfNonZero(&target.Capture.SlideHeight, source.Capture.SlideHeight)

	// Draft config
	setIfNonZero(&target.Draft.DatabasePath, source.Draft.DatabasePath)
	setIfNonZero(&target.Draft.DebounceMs, source.Draft.DebounceMs)
	setIfNonZero(&target.Draft.HistorySize, source.Draft.HistorySize)

	// Editor config
	setIfNonZero(&target.Editor.ToolbarHeight, source.Editor.ToolbarHeight)
	setIfNonZero(&target.Editor.HideGraceMs, source.Editor.HideGraceMs)

	// Browser config
	setIfNonZero(&target.Browser.Browser, source.Browser.Browser)
	// TOML cannot tell false from unset, so booleans always follow the later layer
	target.Browser.AutoOpen = source.Browser.AutoOpen

	// Logging config
	setIfNonZero(&target.Logging.Level, source.Logging.Level)
	setIfNonZero(&target.Logging.File, source.Logging.File)
	target.Logging.Verbose = target.Logging.Verbose || source.Logging.Verbose
	target.Logging.JSONFormat = target.Logging.JSONFormat || source.Logging.JSONFormat
}

func setIfNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// deepCopy creates a deep copy of a configuration
func deepCopy(src *entities.Config) *entities.Config {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Server.CORSOrigins = slices.Clone(src.Server.CORSOrigins)
	return &dst
}

// Ensure ConfigMerger implements ports.ConfigMerger
var _ ports.ConfigMerger = (*ConfigMerger)(nil)
