package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppConfigApplyDefaults(t *testing.T) {
	cfg := AppConfig{}
	cfg.ApplyDefaults()

	if cfg.Name != "crosscribe" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("expected debug=true for development")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Session.IdleTTL <= 0 {
		t.Error("expected session idle TTL default")
	}
	if cfg.Comparison.PerBackendTimeout <= 0 {
		t.Error("expected per-backend timeout default")
	}
	if cfg.Metrics.Endpoint == "" {
		t.Error("expected metrics endpoint default")
	}
}

func TestAppConfigValidate(t *testing.T) {
	valid := func() AppConfig {
		cfg := AppConfig{
			Backends: BackendsConfig{
				Transcription: map[string]map[string]any{
					"whisper": {"base_url": "http://localhost:9000"},
				},
			},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		errMsg string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"bad environment", func(c *AppConfig) { c.Environment = "qa" }, "environment must be one of"},
		{"bad log level", func(c *AppConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad port", func(c *AppConfig) { c.Server.Port = 70000 }, "server.port"},
		{"no backends", func(c *AppConfig) { c.Backends.Transcription = nil }, "backends.transcription"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: crosscribe
environment: staging
session:
  idle_ttl: 5m
comparison:
  diarizer: pyannote
  default_backends: [whisper, openai]
backends:
  transcription:
    whisper:
      base_url: http://localhost:9000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg AppConfig
	if err := LoadConfig("crosscribe", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Session.IdleTTL != 5*time.Minute {
		t.Errorf("expected idle_ttl 5m, got %v", cfg.Session.IdleTTL)
	}
	if len(cfg.Comparison.DefaultBackends) != 2 {
		t.Errorf("expected 2 default backends, got %v", cfg.Comparison.DefaultBackends)
	}
	if cfg.Backends.Transcription["whisper"]["base_url"] != "http://localhost:9000" {
		t.Errorf("backend config not loaded: %v", cfg.Backends.Transcription)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg AppConfig
	// With no config file found, LoadConfig still succeeds with zero values.
	if err := LoadConfig("crosscribe", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("SESSION_IDLE_TTL")
	want := map[string]bool{
		"session_idle_ttl": true,
		"session.idle.ttl": true,
		"session.idle_ttl": true,
	}
	for w := range want {
		found := false
		for _, v := range variants {
			if v == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing variant %q in %v", w, variants)
		}
	}
}
