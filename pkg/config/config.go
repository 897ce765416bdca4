// Package config provides configuration loading and management for imagemeta.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Output formats understood by the command-line tool
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Metadata parameters applied when building image metadata
	Metadata struct {
		// Origin is the tag recorded as the producer of the metadata
		Origin string `yaml:"origin"`

		// Downsamples, if set, are used as the pyramid levels of probed images
		Downsamples []float64 `yaml:"downsamples"`

		// TileWidth and TileHeight override the preferred tile size of probed
		// images; 0 means use the default
		TileWidth  int `yaml:"tileWidth"`
		TileHeight int `yaml:"tileHeight"`
	} `yaml:"metadata"`

	// Output parameters
	Output struct {
		// Format is either "text" or "yaml"
		Format string `yaml:"format"`

		// Verbose controls whether diagnostics are logged
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Metadata.Origin = "imagemeta"

	cfg.Output.Format = FormatText
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks values that cannot be used as given
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	for _, d := range c.Metadata.Downsamples {
		if d <= 0 {
			return fmt.Errorf("downsample must be > 0, got %v", d)
		}
	}
	if c.Metadata.TileWidth < 0 || c.Metadata.TileHeight < 0 {
		return fmt.Errorf("tile size must not be negative")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
