package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// GetDefaultConfig returns the default configuration with environment overrides
func GetDefaultConfig() *entities.Config {
	config := &entities.Config{
		Server: entities.ServerConfig{
			Host:            getEnvOrDefault("CAROUSEL_HOST", "localhost"),
			Port:            getEnvIntOrDefault("CAROUSEL_PORT", entities.DefaultPort),
			ReadTimeout:     getEnvIntOrDefault("CAROUSEL_READ_TIMEOUT", 30),
			WriteTimeout:    getEnvIntOrDefault("CAROUSEL_WRITE_TIMEOUT", 120),
			ShutdownTimeout: getEnvIntOrDefault("CAROUSEL_SHUTDOWN_TIMEOUT", 5),
			CORSOrigins: getEnvSliceOrDefault("CAROUSEL_CORS_ORIGINS", []string{
				"http://localhost:4040",
				"http://127.0.0.1:4040",
			}),
		},
		Generation: entities.GenerationConfig{
			APIKey:            apiKeyFromEnv(),
			TextModel:         getEnvOrDefault("CAROUSEL_TEXT_MODEL", "gemini-2.5-flash"),
			ImageModel:        getEnvOrDefault("CAROUSEL_IMAGE_MODEL", "imagen-4.0-generate-001"),
			DefaultSlideCount: getEnvIntOrDefault("CAROUSEL_SLIDE_COUNT", 5),
			TimeoutSeconds:    60,
			StockBaseURL:      "https://picsum.photos",
		},
		Export: entities.ExportConfig{
			ArchiveScale:  2,
			GIFScale:      1,
			JPEGQuality:   92,
			FrameDelayMs:  entities.DefaultFrameDelayMs,
			GIFBackground: "#ffffff",
			JobRetention:  15,
		},
		Capture: entities.CaptureConfig{
			Mode:           getEnvOrDefault("CAROUSEL_CAPTURE_MODE", string(entities.CaptureRasterizer)),
			BrowserBin:     getEnvOrDefault("CAROUSEL_BROWSER_BIN", ""),
			TimeoutSeconds: 30,
			SlideWidth:     540,
			SlideHeight:    540,
		},
		Draft: entities.DraftConfig{
			DatabasePath: getEnvOrDefault("CAROUSEL_DRAFT_DB", ""),
			DebounceMs:   1000,
			HistorySize:  entities.DefaultHistorySize,
		},
		Editor: entities.EditorConfig{
			ToolbarHeight: 50,
			HideGraceMs:   200,
		},
		Browser: entities.BrowserConfig{
			AutoOpen: true,
			Browser:  "default",
		},
		Logging: entities.LoggingConfig{
			Level:      getEnvOrDefault("CAROUSEL_LOG_LEVEL", "info"),
			Verbose:    getEnvBoolOrDefault("CAROUSEL_LOG_VERBOSE", false),
			JSONFormat: getEnvBoolOrDefault("CAROUSEL_LOG_JSON", false),
			File:       getEnvOrDefault("CAROUSEL_LOG_FILE", ""),
		},
	}

	applyEnvironmentOverrides(config)

	return config
}

// apiKeyFromEnv prefers the application-specific variable over the SDK's own
func apiKeyFromEnv() string {
	for _, key := range []string{"CAROUSEL_GENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvSliceOrDefault returns a comma separated environment variable as slice or default
func getEnvSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func applyEnvironmentOverrides(config *entities.Config) {
	if autoOpen := os.Getenv("CAROUSEL_BROWSER_AUTO_OPEN"); autoOpen != "" {
		if boolValue, err := strconv.ParseBool(autoOpen); err == nil {
			config.Browser.AutoOpen = boolValue
		}
	}

	if browser := os.Getenv("CAROUSEL_BROWSER"); browser != "" {
		config.Browser.Browser = browser
	}
}
