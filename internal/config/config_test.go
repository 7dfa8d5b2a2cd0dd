package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.RiskFreeRate != 0.05 {
		t.Errorf("risk free rate = %.4f, want 0.05", cfg.Engine.RiskFreeRate)
	}
	if cfg.Engine.YearDays != 365 {
		t.Errorf("year days = %.0f, want 365", cfg.Engine.YearDays)
	}
	if cfg.Engine.DefaultVolatility != 0.22 {
		t.Errorf("default volatility = %.4f, want 0.22", cfg.Engine.DefaultVolatility)
	}
	if cfg.Engine.NumSimulations != 1000 {
		t.Errorf("simulations = %d, want 1000", cfg.Engine.NumSimulations)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[engine]
risk_free_rate = 0.03
stddev_range = 4.0
num_simulations = 500

[logging]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.RiskFreeRate != 0.03 {
		t.Errorf("risk free rate = %.4f, want 0.03", cfg.Engine.RiskFreeRate)
	}
	if cfg.Engine.StdDevRange != 4.0 {
		t.Errorf("stddev range = %.1f, want 4.0", cfg.Engine.StdDevRange)
	}
	if cfg.Engine.NumSimulations != 500 {
		t.Errorf("simulations = %d, want 500", cfg.Engine.NumSimulations)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Engine.YearDays != 365 {
		t.Errorf("year days = %.0f, want default 365", cfg.Engine.YearDays)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPTION_SIM_LOG_LEVEL", "warn")
	t.Setenv("OPTION_SIM_DB_PATH", "/tmp/alt.db")
	t.Setenv("OPTION_SIM_RISK_FREE_RATE", "0.02")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Engine.DatabasePath != "/tmp/alt.db" {
		t.Errorf("db path = %q, want /tmp/alt.db", cfg.Engine.DatabasePath)
	}
	if cfg.Engine.RiskFreeRate != 0.02 {
		t.Errorf("risk free rate = %.4f, want 0.02", cfg.Engine.RiskFreeRate)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero year days", func(c *Config) { c.Engine.YearDays = 0 }},
		{"negative stddev range", func(c *Config) { c.Engine.StdDevRange = -1 }},
		{"single point grid", func(c *Config) { c.Engine.NumSimulations = 1 }},
		{"zero default vol", func(c *Config) { c.Engine.DefaultVolatility = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}
