package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ConfigService resolves the effective configuration from defaults, the
// global file, the local file, environment variables and CLI flags, in that
// order of precedence.
type ConfigService struct {
	loader ports.ConfigLoader
	merger ports.ConfigMerger
	logger *zap.Logger
}

// NewConfigService creates a new configuration service
func NewConfigService(loader ports.ConfigLoader, merger ports.ConfigMerger) *ConfigService {
	return &ConfigService{
		loader: loader,
		merger: merger,
		logger: zap.NewNop(),
	}
}

// SetLogger replaces the service logger once logging is configured
func (s *ConfigService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger.Named("config")
	}
}

// LoadConfig loads the complete configuration with hierarchy and overrides
func (s *ConfigService) LoadConfig(ctx context.Context, workingDir string, flags map[string]interface{}) (*entities.Config, error) {
	layers := []*entities.Config{s.GetDefaultConfig()}

	global, err := s.loader.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	if global != nil {
		layers = append(layers, global)
	}

	local, err := s.loader.LoadLocal(ctx, workingDir)
	if err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}
	if local != nil {
		s.logger.Debug("Using local config", zap.String("dir", workingDir))
		layers = append(layers, local)
	}

	cfg := s.merger.ApplyFlags(s.merger.ApplyEnvVars(s.merger.Merge(layers...)), flags)

	if err := s.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("final config validation: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns the default configuration. The merger owns the
// defaults; merging nothing yields them.
func (s *ConfigService) GetDefaultConfig() *entities.Config {
	return s.merger.Merge()
}

// ValidateConfig validates a configuration
func (s *ConfigService) ValidateConfig(config *entities.Config) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}

	return config.Validate()
}

// CreateGlobalConfig creates the global configuration file with defaults
func (s *ConfigService) CreateGlobalConfig(ctx context.Context) error {
	return s.loader.CreateDefaults(ctx, s.loader.GetGlobalPath())
}

var _ ports.ConfigService = (*ConfigService)(nil)
