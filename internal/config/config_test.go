package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoclock/internal/pomodoro"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "pomoclock.db", cfg.DatabasePath)
	assert.Equal(t, "/tmp/pomoclock.sock", cfg.SocketPath)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, pomodoro.PolicyFresh, cfg.Policy())
	assert.Equal(t, pomodoro.DefaultDurations(), cfg.Durations())
	assert.True(t, cfg.Notifications)
	assert.False(t, cfg.FocusTracking)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Empty(t, cfg.File)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
database_path: /var/lib/pomoclock/history.db
tick_interval_ms: 300
resume_policy: resume
log_level: debug
sound: false
pomodoro:
  work_minutes: 50
  short_break_minutes: 10
  long_break_minutes: 30
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/pomoclock/history.db", cfg.DatabasePath)
	assert.Equal(t, 300*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, pomodoro.PolicyResume, cfg.Policy())
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.False(t, cfg.Sound)
	assert.Equal(t, pomodoro.Durations{Work: 3000, ShortBreak: 600, LongBreak: 1800}, cfg.Durations())
	assert.Equal(t, path, cfg.File)
}

func TestLoadConfig_Clamps(t *testing.T) {
	path := writeConfig(t, `
tick_interval_ms: 5000
resume_policy: sometimes
log_level: loud
pomodoro:
  work_minutes: 0
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, pomodoro.MaxTickInterval, cfg.TickInterval())
	assert.Equal(t, pomodoro.PolicyFresh, cfg.Policy())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60, cfg.Durations().Work)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("POMOCLOCK_TICK_INTERVAL_MS", "10")
	t.Setenv("POMOCLOCK_POMODORO_WORK_MINUTES", "45")
	t.Setenv("POMOCLOCK_SOCKET_PATH", "/run/user/1000/pomoclock.sock")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, pomodoro.MinTickInterval, cfg.TickInterval())
	assert.Equal(t, 2700, cfg.Durations().Work)
	assert.Equal(t, "/run/user/1000/pomoclock.sock", cfg.SocketPath)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
