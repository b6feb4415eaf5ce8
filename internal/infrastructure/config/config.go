// Package config loads the workspace configuration for the draftd server.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFile = "config.yaml"
const draftdDir = ".draftd"

// Config is the workspace configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	Suggest SuggestConfig `yaml:"suggest"`
	Save    SaveConfig    `yaml:"save"`
}

// SuggestConfig points at the backend suggestion endpoint. Headers carry
// whatever authentication the host requires; draftd forwards them verbatim.
type SuggestConfig struct {
	BaseURL        string            `yaml:"base_url"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
}

// SaveConfig selects the host hand-off for saved drafts. With a webhook URL
// the draft is POSTed to the host (optionally HMAC-signed); without one it
// is written to the workspace exports directory.
type SaveConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty"`
	Secret     string `yaml:"secret,omitempty"`
}

// Default returns the configuration used when none is stored.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:8470",
		Suggest: SuggestConfig{
			TimeoutSeconds: 30,
		},
	}
}

// Load reads the workspace config, falling back to defaults when no file
// exists.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, draftdDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes the workspace config.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(root, draftdDir, configFile)
	return os.WriteFile(path, data, 0600)
}
