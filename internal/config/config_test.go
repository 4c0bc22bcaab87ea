package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg := Load()
	assert.Equal(t, "https://hack-or-snooze-v3.herokuapp.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5.0, cfg.API.RateLimit)
	assert.Equal(t, 2, cfg.API.Burst)
	assert.Equal(t, 10*time.Minute, cfg.Cache.MaxAge)
	assert.Equal(t, "session.db", filepath.Base(cfg.Session.Path))
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.TTS.Type)
	assert.Equal(t, ":8080", cfg.Stub.Addr)
}

func TestInit_EnvironmentOverrides(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("STORYFEED_API_BASE_URL", "http://localhost:9999")
	t.Setenv("STORYFEED_CACHE_MAX_AGE", "1m")
	t.Setenv("STORYFEED_LOG_LEVEL", "debug")

	require.NoError(t, Init())
	cfg := Load()
	assert.Equal(t, "http://localhost:9999", cfg.API.BaseURL)
	assert.Equal(t, time.Minute, cfg.Cache.MaxAge)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInit_ConfigFile(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := "api:\n  base_url: http://from-file\ntts:\n  type: mock\nsession:\n  path: ~/custom/session.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storyfeed.yaml"), []byte(yaml), 0o644))

	require.NoError(t, Init())
	cfg := Load()
	assert.Equal(t, "http://from-file", cfg.API.BaseURL)
	assert.Equal(t, "mock", cfg.TTS.Type)
	assert.NotContains(t, cfg.Session.Path, "~")
	assert.Equal(t, 2, cfg.API.Burst, "defaults still apply")
}

func TestInit_DotEnv(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORYFEED_STUB_ADDR=:7070\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STORYFEED_STUB_ADDR") })

	require.NoError(t, Init())
	assert.Equal(t, ":7070", Load().Stub.Addr)
}

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	SetupLogger(LogConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	SetupLogger(LogConfig{Level: "loud", Format: "text"})
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y"), expandHome("~/x/y"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "rel", expandHome("rel"))
}
