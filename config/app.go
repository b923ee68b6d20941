package config

import (
	"fmt"

	"github.com/kbukum/crosscribe/comparison"
	"github.com/kbukum/crosscribe/logger"
	"github.com/kbukum/crosscribe/observability"
	"github.com/kbukum/crosscribe/server"
	"github.com/kbukum/crosscribe/session"
)

// StorageConfig configures the recording blob store.
type StorageConfig struct {
	// BasePath is the root directory for stored recordings.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
}

// BackendsConfig names and configures the external providers. Each entry
// maps a provider name to the free-form config its factory accepts.
type BackendsConfig struct {
	Diarization   map[string]map[string]any `yaml:"diarization" mapstructure:"diarization"`
	Transcription map[string]map[string]any `yaml:"transcription" mapstructure:"transcription"`
}

// AppConfig is the full crosscribe service configuration.
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging    logger.Config             `yaml:"logging" mapstructure:"logging"`
	Server     server.Config             `yaml:"server" mapstructure:"server"`
	Session    session.Config            `yaml:"session" mapstructure:"session"`
	Storage    StorageConfig             `yaml:"storage" mapstructure:"storage"`
	Comparison comparison.Config         `yaml:"comparison" mapstructure:"comparison"`
	Metrics    observability.MeterConfig `yaml:"metrics" mapstructure:"metrics"`
	Backends   BackendsConfig            `yaml:"backends" mapstructure:"backends"`
}

// ApplyDefaults applies default values across all sections.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "crosscribe"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./data"
	}
	defaults := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = defaults.ServiceName
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = defaults.Endpoint
		c.Metrics.Insecure = defaults.Insecure
	}
	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = defaults.Interval
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Comparison.ApplyDefaults()
}

// Validate checks all sections for invalid values.
func (c *AppConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, env := range validEnvs {
		if c.Environment == env {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if len(c.Backends.Transcription) == 0 {
		return fmt.Errorf("backends.transcription must configure at least one backend")
	}
	return nil
}
