package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Metadata.Origin != "imagemeta" {
		t.Errorf("Expected default origin 'imagemeta', got %q", cfg.Metadata.Origin)
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("Expected default format %q, got %q", FormatText, cfg.Output.Format)
	}
	if len(cfg.Metadata.Downsamples) != 0 {
		t.Errorf("Expected no default downsamples, got %v", cfg.Metadata.Downsamples)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid: %v", err)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got %v", err)
	}
	if cfg.Output.Format != FormatText {
		t.Errorf("Expected default format, got %q", cfg.Output.Format)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Metadata.Origin = "scanner"
	cfg.Metadata.Downsamples = []float64{1, 4, 16}
	cfg.Metadata.TileWidth = 512
	cfg.Output.Format = FormatYAML
	cfg.Output.Verbose = false

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Metadata.Origin != "scanner" || loaded.Output.Format != FormatYAML || loaded.Output.Verbose {
		t.Errorf("Loaded config does not match saved: %+v", loaded)
	}
	if len(loaded.Metadata.Downsamples) != 3 || loaded.Metadata.Downsamples[2] != 16 {
		t.Errorf("Unexpected downsamples %v", loaded.Metadata.Downsamples)
	}
	if loaded.Metadata.TileWidth != 512 || loaded.Metadata.TileHeight != 0 {
		t.Errorf("Unexpected tile size %dx%d", loaded.Metadata.TileWidth, loaded.Metadata.TileHeight)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"BadYAML", "output: [unterminated"},
		{"BadFormat", "output:\n  format: xml\n"},
		{"BadDownsample", "metadata:\n  downsamples: [1, 0]\n"},
		{"NegativeTile", "metadata:\n  tileHeight: -2\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("Expected error loading invalid config")
			}
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	if cfg.Metadata.Origin != DefaultConfig().Metadata.Origin {
		t.Errorf("Expected default origin, got %q", cfg.Metadata.Origin)
	}
}
