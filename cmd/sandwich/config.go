package main

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envListenAddr       = "SANDWICH_LISTEN_ADDR"
	envMetricsAddr      = "SANDWICH_METRICS_ADDR"
	envLogLevel         = "SANDWICH_LOG_LEVEL"
	envDatabaseURL      = "SANDWICH_DATABASE_URL"
	envSettingsCacheTTL = "SANDWICH_SETTINGS_CACHE_TTL"

	defaultListenAddr       = ":8086"
	defaultMetricsAddr      = ":9091"
	defaultLogLevel         = "info"
	defaultSettingsCacheTTL = time.Minute
)

type Config struct {
	ListenAddr       string
	MetricsAddr      string
	LogLevel         string
	DatabaseURL      string
	SettingsCacheTTL time.Duration
}

// LoadConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first if present; variables already set in the
// environment take precedence over it.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	ttl := defaultSettingsCacheTTL
	if raw := strings.TrimSpace(os.Getenv(envSettingsCacheTTL)); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", envSettingsCacheTTL)
		}
		ttl = parsed
	}

	cfg := &Config{
		ListenAddr:       envOrDefault(envListenAddr, defaultListenAddr),
		MetricsAddr:      envOrDefault(envMetricsAddr, defaultMetricsAddr),
		LogLevel:         envOrDefault(envLogLevel, defaultLogLevel),
		DatabaseURL:      strings.TrimSpace(os.Getenv(envDatabaseURL)),
		SettingsCacheTTL: ttl,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	if c.SettingsCacheTTL < 0 {
		return errors.Errorf("settings cache ttl must not be negative, got %s", c.SettingsCacheTTL)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// applyFlags overrides cfg with every flag set explicitly on cmd.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	var err error
	if flags.Changed("listen") {
		if c.ListenAddr, err = flags.GetString("listen"); err != nil {
			return err
		}
	}
	if flags.Changed("metrics") {
		if c.MetricsAddr, err = flags.GetString("metrics"); err != nil {
			return err
		}
	}
	if flags.Changed("log-level") {
		if c.LogLevel, err = flags.GetString("log-level"); err != nil {
			return err
		}
	}
	if flags.Changed("database-url") {
		if c.DatabaseURL, err = flags.GetString("database-url"); err != nil {
			return err
		}
	}
	if flags.Changed("settings-cache-ttl") {
		if c.SettingsCacheTTL, err = flags.GetDuration("settings-cache-ttl"); err != nil {
			return err
		}
	}

	return c.validate()
}

func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
