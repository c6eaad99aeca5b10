package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

type MockConfigLoader struct {
	mock.Mock
}

func (m *MockConfigLoader) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) LoadLocal(ctx context.Context, dir string) (*entities.Config, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Config), args.Error(1)
}

func (m *MockConfigLoader) CreateDefaults(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockConfigLoader) GetGlobalPath() string {
	return m.Called().String(0)
}

func (m *MockConfigLoader) GetLocalPath(dir string) string {
	return m.Called(dir).String(0)
}

type MockConfigMerger struct {
	mock.Mock
}

func (m *MockConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	return m.Called(configs).Get(0).(*entities.Config)
}

func (m *MockConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	return m.Called(config, flags).Get(0).(*entities.Config)
}

func (m *MockConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	return m.Called(config).Get(0).(*entities.Config)
}

func configWithPort(port int) *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{Host: "127.0.0.1", Port: port},
	}
}

func TestConfigService_LoadConfig(t *testing.T) {
	t.Run("merges layers in precedence order", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}

		defaults := configWithPort(3000)
		global := configWithPort(4000)
		local := configWithPort(5000)
		merged := configWithPort(5000)
		withEnv := configWithPort(5500)
		final := configWithPort(6000)
		flags := map[string]interface{}{"port": 6000}

		merger.On("Merge", mock.MatchedBy(func(c []*entities.Config) bool { return len(c) == 0 })).Return(defaults)
		loader.On("LoadGlobal", mock.Anything).Return(global, nil)
		loader.On("LoadLocal", mock.Anything, "/work").Return(local, nil)
		merger.On("Merge", mock.MatchedBy(func(c []*entities.Config) bool {
			return len(c) == 3 && c[0] == defaults && c[1] == global && c[2] == local
		})).Return(merged)
		merger.On("ApplyEnvVars", merged).Return(withEnv)
		merger.On("ApplyFlags", withEnv, flags).Return(final)

		service := NewConfigService(loader, merger)
		result, err := service.LoadConfig(context.Background(), "/work", flags)

		require.NoError(t, err)
		assert.Same(t, final, result)
		loader.AssertExpectations(t)
		merger.AssertExpectations(t)
	})

	t.Run("missing local config is skipped", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		cfg := configWithPort(3000)

		merger.On("Merge", mock.MatchedBy(func(c []*entities.Config) bool { return len(c) == 0 })).Return(cfg)
		loader.On("LoadGlobal", mock.Anything).Return(nil, nil)
		loader.On("LoadLocal", mock.Anything, "/work").Return(nil, nil)
		merger.On("Merge", mock.MatchedBy(func(c []*entities.Config) bool { return len(c) == 1 })).Return(cfg)
		merger.On("ApplyEnvVars", cfg).Return(cfg)
		merger.On("ApplyFlags", cfg, mock.Anything).Return(cfg)

		result, err := NewConfigService(loader, merger).LoadConfig(context.Background(), "/work", nil)
		require.NoError(t, err)
		assert.Equal(t, 3000, result.Server.Port)
	})

	t.Run("global load error", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}

		merger.On("Merge", mock.Anything).Return(&entities.Config{})
		loader.On("LoadGlobal", mock.Anything).Return(nil, errors.New("permission denied"))

		_, err := NewConfigService(loader, merger).LoadConfig(context.Background(), "/work", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading global config")
	})

	t.Run("local load error", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}

		merger.On("Merge", mock.Anything).Return(&entities.Config{})
		loader.On("LoadGlobal", mock.Anything).Return(&entities.Config{}, nil)
		loader.On("LoadLocal", mock.Anything, "/work").Return(nil, errors.New("bad toml"))

		_, err := NewConfigService(loader, merger).LoadConfig(context.Background(), "/work", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading local config")
	})

	t.Run("invalid final config", func(t *testing.T) {
		loader := &MockConfigLoader{}
		merger := &MockConfigMerger{}
		bad := configWithPort(-1)

		merger.On("Merge", mock.Anything).Return(bad)
		loader.On("LoadGlobal", mock.Anything).Return(nil, nil)
		loader.On("LoadLocal", mock.Anything, "/work").Return(nil, nil)
		merger.On("ApplyEnvVars", bad).Return(bad)
		merger.On("ApplyFlags", bad, mock.Anything).Return(bad)

		_, err := NewConfigService(loader, merger).LoadConfig(context.Background(), "/work", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "final config validation")
	})
}

func TestConfigService_ValidateConfig(t *testing.T) {
	service := NewConfigService(&MockConfigLoader{}, &MockConfigMerger{})

	assert.EqualError(t, service.ValidateConfig(nil), "config cannot be nil")
	assert.NoError(t, service.ValidateConfig(configWithPort(8080)))
}

func TestConfigService_CreateGlobalConfig(t *testing.T) {
	loader := &MockConfigLoader{}
	loader.On("GetGlobalPath").Return("/home/u/.config/carousel/config.toml")
	loader.On("CreateDefaults", mock.Anything, "/home/u/.config/carousel/config.toml").Return(nil)

	service := NewConfigService(loader, &MockConfigMerger{})
	require.NoError(t, service.CreateGlobalConfig(context.Background()))
	loader.AssertExpectations(t)
}
