package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

func TestTOMLLoader_LoadGlobal(t *testing.T) {
	t.Run("creates config on first run", func(t *testing.T) {
		t.Setenv("CAROUSEL_GENAI_API_KEY", "secret-key")
		globalPath := filepath.Join(t.TempDir(), "nested", "config.toml")
		loader := NewTOMLLoaderAt(globalPath)

		config, err := loader.LoadGlobal(context.Background())
		require.NoError(t, err)
		require.NotNil(t, config)

		_, err = os.Stat(globalPath)
		assert.NoError(t, err)

		assert.Equal(t, "localhost", config.Server.Host)
		assert.Equal(t, 4040, config.Server.Port)
		assert.Equal(t, 2.0, config.Export.ArchiveScale)
		assert.Equal(t, 92, config.Export.JPEGQuality)
		assert.Equal(t, entities.DefaultFrameDelayMs, config.Export.FrameDelayMs)
		assert.Equal(t, 200, config.Editor.HideGraceMs)
		assert.True(t, config.Browser.AutoOpen)

		data, err := os.ReadFile(globalPath)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "secret-key")
		assert.Empty(t, config.Generation.APIKey)
	})

	t.Run("loads existing config", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		content := `
[server]
host = "0.0.0.0"
port = 8080

[export]
jpeg_quality = 80
frame_delay_ms = 500

[capture]
mode = "browser"

[browser]
auto_open = false
browser = "firefox"
`
		require.NoError(t, os.WriteFile(globalPath, []byte(content), 0600))

		config, err := NewTOMLLoaderAt(globalPath).LoadGlobal(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", config.Server.Host)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, 80, config.Export.JPEGQuality)
		assert.Equal(t, 500, config.Export.FrameDelayMs)
		assert.Equal(t, entities.CaptureBrowser, config.Capture.GetMode())
		assert.False(t, config.Browser.AutoOpen)
		assert.Equal(t, "firefox", config.Browser.Browser)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		globalPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(globalPath, []byte("[export]\nframe_delay_ms = 20\n"), 0600))

		_, err := NewTOMLLoaderAt(globalPath).LoadGlobal(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "export config")
	})
}

func TestTOMLLoader_LoadLocal(t *testing.T) {
	loader := NewTOMLLoaderAt(filepath.Join(t.TempDir(), "global.toml"))

	t.Run("missing local config is not an error", func(t *testing.T) {
		config, err := loader.LoadLocal(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("loads carousel.toml", func(t *testing.T) {
		dir := t.TempDir()
		content := "[draft]\nhistory_size = 20\n\n[editor]\ntoolbar_height = 64\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "carousel.toml"), []byte(content), 0600))

		config, err := loader.LoadLocal(context.Background(), dir)
		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, 20, config.Draft.HistorySize)
		assert.Equal(t, 64.0, config.Editor.GetToolbarHeight())
	})

	t.Run("unknown keys", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "carousel.toml"), []byte("[theme]\nname = \"x\"\n"), 0600))

		_, err := loader.LoadLocal(context.Background(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown keys")
	})

	t.Run("malformed TOML", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "carousel.toml"), []byte("[server\nport ="), 0600))

		_, err := loader.LoadLocal(context.Background(), dir)
		assert.Error(t, err)
	})
}

func TestTOMLLoader_CreateDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	loader := NewTOMLLoaderAt(path)

	require.NoError(t, loader.CreateDefaults(context.Background(), path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	config, err := loader.loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", config.Export.GIFBackground)
}

func TestTOMLLoader_GetPaths(t *testing.T) {
	loader := NewTOMLLoaderAt("/etc/carousel/config.toml")

	assert.Equal(t, "/etc/carousel/config.toml", loader.GetGlobalPath())
	assert.Equal(t, filepath.Join("/work", "carousel.toml"), loader.GetLocalPath("/work"))
}

func TestNewTOMLLoader(t *testing.T) {
	loader := NewTOMLLoader()

	assert.Contains(t, loader.GetGlobalPath(), filepath.Join(".config", "carousel", "config.toml"))
	assert.Equal(t, "carousel.toml", loader.localName)
}
