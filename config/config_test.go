package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarlog/cycle-engine/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(config.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "lunarlog.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Reminders.Enabled)
	assert.Equal(t, "0 8 * * *", cfg.Reminders.Schedule)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LUNARLOG_SERVER_PORT", "3000")
	t.Setenv("LUNARLOG_DATABASE_PATH", ":memory:")
	t.Setenv("LUNARLOG_LOG_FORMAT", "json")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunarlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  path: /var/lib/lunarlog/cycles.db
log:
  level: debug
reminders:
  enabled: false
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/lunarlog/cycles.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset keys keep defaults")
	assert.False(t, cfg.Reminders.Enabled)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port out of range", func(c *config.Config) { c.Server.Port = 70000 }},
		{"empty db path", func(c *config.Config) { c.Database.Path = "" }},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"enabled without schedule", func(c *config.Config) { c.Reminders.Schedule = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.FromViper(config.New())
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DisabledRemindersNeedNoSchedule(t *testing.T) {
	cfg, err := config.FromViper(config.New())
	require.NoError(t, err)

	cfg.Reminders.Enabled = false
	cfg.Reminders.Schedule = ""
	assert.NoError(t, cfg.Validate())
}
