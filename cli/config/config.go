// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the backend address used when the config names none.
const DefaultBaseURL = "http://127.0.0.1:9380"

// Config represents the CLI configuration.
type Config struct {
	BaseURL string `yaml:"base_url"`
	// Timeout is a duration string, e.g. "30s".
	Timeout string `yaml:"timeout,omitempty"`
	// SecureStore selects the encrypted session file over the bolt
	// database.
	SecureStore bool   `yaml:"secure_store,omitempty"`
	DataDir     string `yaml:"data_dir,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the
// current platform.
// - macOS/Linux: ~/.ragline/config.yaml
// - Windows: %USERPROFILE%\.ragline\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".ragline", "config.yaml")
}

// DefaultDataDir returns the directory holding session state.
func DefaultDataDir() string {
	return filepath.Dir(DefaultConfigPath())
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns a default config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg.withDefaults(), nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg.withDefaults(), nil
}

func (c *Config) withDefaults() *Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	return c
}

// TimeoutDuration parses the configured timeout. Zero means unset.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
