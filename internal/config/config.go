// Package config provides configuration management for the simulator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds the analytics engine defaults.
type EngineConfig struct {
	RiskFreeRate      float64 `mapstructure:"risk_free_rate"`
	YearDays          float64 `mapstructure:"year_days"`
	StdDevRange       float64 `mapstructure:"stddev_range"`
	NumSimulations    int     `mapstructure:"num_simulations"`
	DefaultVolatility float64 `mapstructure:"default_volatility"`
	DatabasePath      string  `mapstructure:"database_path"`
}

// UIConfig holds presentation configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/option-sim"
	}
	return filepath.Join(home, ".config", "option-sim")
}

// Default returns the configuration defaults.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Engine: EngineConfig{
			RiskFreeRate:      0.05,
			YearDays:          365,
			StdDevRange:       3.0,
			NumSimulations:    1000,
			DefaultVolatility: 0.22,
			DatabasePath:      filepath.Join(dir, "option-sim.db"),
		},
		UI: UIConfig{ColorEnabled: true},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			File:       false,
			FilePath:   filepath.Join(dir, "logs", "option-sim.log"),
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load loads configuration from the specified directory, falling back to
// the defaults when no config file exists. If configDir is empty, the
// default config directory is used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("engine.risk_free_rate", cfg.Engine.RiskFreeRate)
	v.SetDefault("engine.year_days", cfg.Engine.YearDays)
	v.SetDefault("engine.stddev_range", cfg.Engine.StdDevRange)
	v.SetDefault("engine.num_simulations", cfg.Engine.NumSimulations)
	v.SetDefault("engine.default_volatility", cfg.Engine.DefaultVolatility)
	v.SetDefault("engine.database_path", cfg.Engine.DatabasePath)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.file_path", cfg.Logging.FilePath)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTION_SIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPTION_SIM_DB_PATH"); v != "" {
		cfg.Engine.DatabasePath = v
	}
	if v := os.Getenv("OPTION_SIM_RISK_FREE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.RiskFreeRate = rate
		}
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Engine.YearDays <= 0 {
		return fmt.Errorf("engine.year_days must be positive, got %.0f", c.Engine.YearDays)
	}
	if c.Engine.StdDevRange <= 0 {
		return fmt.Errorf("engine.stddev_range must be positive, got %.2f", c.Engine.StdDevRange)
	}
	if c.Engine.NumSimulations < 2 {
		return fmt.Errorf("engine.num_simulations must be at least 2, got %d", c.Engine.NumSimulations)
	}
	if c.Engine.DefaultVolatility <= 0 {
		return fmt.Errorf("engine.default_volatility must be positive, got %.4f", c.Engine.DefaultVolatility)
	}
	return nil
}
