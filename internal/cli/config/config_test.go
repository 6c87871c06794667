package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Serialize.IdentifierPrefix != "e" {
		t.Errorf("expected default prefix 'e', got %s", cfg.Serialize.IdentifierPrefix)
	}
	if cfg.Export.RankDir != "TB" {
		t.Errorf("expected default rankdir 'TB', got %s", cfg.Export.RankDir)
	}
	if cfg.Output.NoColor {
		t.Error("expected colors to be enabled by default")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
log:
  level: debug
  development: true
serialize:
  identifier_prefix: node
output:
  no_color: true
export:
  rankdir: lr
`
	if err := os.WriteFile(filepath.Join(tmpDir, "metamodel.yaml"), []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Fatal("expected config file to be found")
	}

	cfg, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Serialize.IdentifierPrefix != "node" {
		t.Errorf("expected prefix 'node', got %s", cfg.Serialize.IdentifierPrefix)
	}
	if !cfg.Output.NoColor {
		t.Error("expected no_color to be set")
	}
	if cfg.Export.RankDir != "LR" {
		t.Errorf("expected rankdir to be normalized to 'LR', got %s", cfg.Export.RankDir)
	}

	logger, err := cfg.Logger()
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Error("expected debug level to be enabled")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("METAMODEL_SERIALIZE_IDENTIFIER_PREFIX", "x")

	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Serialize.IdentifierPrefix != "x" {
		t.Errorf("expected prefix from environment, got %s", cfg.Serialize.IdentifierPrefix)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"prefix with digits first", func(c *Config) { c.Serialize.IdentifierPrefix = "1e" }, true},
		{"keyword prefix", func(c *Config) { c.Serialize.IdentifierPrefix = "nil" }, true},
		{"empty prefix", func(c *Config) { c.Serialize.IdentifierPrefix = "" }, true},
		{"bad rankdir", func(c *Config) { c.Export.RankDir = "UP" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Default()
	cfg.Serialize.IdentifierPrefix = "n"

	if err := os.WriteFile(filepath.Join(tmpDir, "metamodel.yaml"), []byte(cfg.Render()), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadFrom(tmpDir)
	if err != nil {
		t.Fatalf("expected rendered config to load, got %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}
