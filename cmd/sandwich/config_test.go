package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{envListenAddr, envMetricsAddr, envLogLevel, envDatabaseURL, envSettingsCacheTTL} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ListenAddr:       defaultListenAddr,
		MetricsAddr:      defaultMetricsAddr,
		LogLevel:         defaultLogLevel,
		SettingsCacheTTL: defaultSettingsCacheTTL,
	}, cfg)
}

func TestLoadConfig_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv(envListenAddr, "127.0.0.1:9000")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envDatabaseURL, " postgres://localhost/sandwich ")
	t.Setenv(envSettingsCacheTTL, "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/sandwich", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.SettingsCacheTTL)

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(envSettingsCacheTTL, "soon")
	_, err := LoadConfig()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv(envLogLevel, "loud")
	_, err = LoadConfig()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv(envSettingsCacheTTL, "-1s")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestConfig_ApplyFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv(envListenAddr, ":7000")
	t.Setenv(envMetricsAddr, ":7001")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().AddFlagSet(serveCmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--listen", ":8000", "--settings-cache-ttl", "5s"}))
	require.NoError(t, cfg.applyFlags(cmd))

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, ":7001", cfg.MetricsAddr)
	assert.Equal(t, 5*time.Second, cfg.SettingsCacheTTL)

	require.NoError(t, cmd.Flags().Parse([]string{"--log-level", "loud"}))
	assert.Error(t, cfg.applyFlags(cmd))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "sandwich dev\n", out.String())
}
