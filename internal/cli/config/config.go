// Package config loads metamodel.yaml and the METAMODEL_* environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/metamodel/compiler/lexer"
)

// FileName is the config file name without extension
const FileName = "metamodel"

// EnvPrefix prefixes every environment override, e.g. METAMODEL_LOG_LEVEL
const EnvPrefix = "METAMODEL"

// Config represents the metamodel tool configuration
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Serialize SerializeConfig `mapstructure:"serialize"`
	Output    OutputConfig    `mapstructure:"output"`
	Export    ExportConfig    `mapstructure:"export"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SerializeConfig represents serialization configuration
type SerializeConfig struct {
	IdentifierPrefix string `mapstructure:"identifier_prefix"`
}

// OutputConfig represents terminal output configuration
type OutputConfig struct {
	NoColor bool `mapstructure:"no_color"`
}

// ExportConfig represents diagram export configuration
type ExportConfig struct {
	RankDir string `mapstructure:"rankdir"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info"},
		Serialize: SerializeConfig{IdentifierPrefix: "e"},
		Export:    ExportConfig{RankDir: "TB"},
	}
}

// Load loads the configuration from metamodel.yaml in the current
// directory, then applies METAMODEL_* environment overrides
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration searching dir for the config file
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.development", def.Log.Development)
	v.SetDefault("serialize.identifier_prefix", def.Serialize.IdentifierPrefix)
	v.SetDefault("output.no_color", def.Output.NoColor)
	v.SetDefault("export.rankdir", def.Export.RankDir)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Exists reports whether dir holds a config file
func Exists(dir string) bool {
	for _, ext := range []string{".yaml", ".yml"} {
		if _, err := os.Stat(dir + string(os.PathSeparator) + FileName + ext); err == nil {
			return true
		}
	}
	return false
}

// Logger builds the zap logger described by the log section
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

var rankDirs = map[string]bool{"TB": true, "LR": true, "BT": true, "RL": true}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	if p := cfg.Serialize.IdentifierPrefix; !lexer.IsIdentifier(p) || lexer.IsKeyword(p) {
		return fmt.Errorf("serialize.identifier_prefix must be an identifier, got: %q", p)
	}
	cfg.Export.RankDir = strings.ToUpper(cfg.Export.RankDir)
	if !rankDirs[cfg.Export.RankDir] {
		return fmt.Errorf("export.rankdir must be one of TB, LR, BT, RL, got: %s", cfg.Export.RankDir)
	}
	return nil
}

// Render returns cfg as the YAML written by `metamodel init`
func (c *Config) Render() string {
	return fmt.Sprintf(`log:
  level: %s
  development: %t
serialize:
  identifier_prefix: %s
output:
  no_color: %t
export:
  rankdir: %s
`, c.Log.Level, c.Log.Development, c.Serialize.IdentifierPrefix, c.Output.NoColor, c.Export.RankDir)
}
