package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajkarlsson/stint/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STINT_CONFIG_PATH",
		"STINT_BACKEND_STRATEGY",
		"STINT_BACKEND_COMMAND",
		"STINT_BACKEND_TIMEOUT_SECONDS",
		"STINT_DB_PATH",
		"STINT_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.StrategySQLite, cfg.Backend.Strategy)
	require.Equal(t, "timew", cfg.Backend.Command)
	require.Equal(t, 10, cfg.Backend.TimeoutSeconds)
	require.Equal(t, "hard", cfg.Backend.DeletePolicy)
	require.Equal(t, "stint.db", cfg.DB.Path)
	require.Equal(t, "annotations.json", cfg.Overlay.AnnotationsPath)
	require.Equal(t, "hidden_tags.json", cfg.Overlay.HiddenTagsPath)
	require.Equal(t, "Daily task", cfg.Tracker.DefaultTask)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  strategy: timew
  command: /usr/local/bin/timew
  timeout_seconds: 3
tracker:
  default_task: Catch-all
log:
  level: debug
`), 0o600))
	t.Setenv("STINT_CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.StrategyTimew, cfg.Backend.Strategy)
	require.Equal(t, "/usr/local/bin/timew", cfg.Backend.Command)
	require.Equal(t, 3, cfg.Backend.TimeoutSeconds)
	require.Equal(t, "soft", cfg.Backend.DeletePolicy)
	require.Equal(t, "Catch-all", cfg.Tracker.DefaultTask)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  path: file.db\n"), 0o600))
	t.Setenv("STINT_CONFIG_PATH", path)
	t.Setenv("STINT_DB_PATH", "env.db")
	t.Setenv("STINT_BACKEND_TIMEOUT_SECONDS", "42")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "env.db", cfg.DB.Path)
	require.Equal(t, 42, cfg.Backend.TimeoutSeconds)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	clearEnv(t)
	t.Setenv("STINT_BACKEND_STRATEGY", "postgres")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsTimewHardDelete(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  strategy: timew
  delete_policy: hard
`), 0o600))
	t.Setenv("STINT_CONFIG_PATH", path)

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("STINT_BACKEND_TIMEOUT_SECONDS", "soon")

	_, err := config.Load()
	require.Error(t, err)
}
