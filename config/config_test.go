package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verinest-onboarding/shared"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://verinest.up.railway.app
  timeout: 5s
store:
  driver: sqlite
  path: /tmp/wizard.db
wizard:
  first_reminder: 2h
`)
	t.Setenv("TEMPORAL_HOST_PORT", "temporal:7233")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://verinest.up.railway.app", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Wizard.FirstReminder)
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_KafkaBrokerEnvSwitchesDriver(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "k1:9092,k2:9092")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.Store.Driver = "etcd" }, "unknown store driver"},
		{"redis without addr", func(c *Config) { c.Store.Driver = "redis" }, "redis_addr"},
		{"file without path", func(c *Config) { c.Store.Path = "" }, "requires a path"},
		{"kafka without brokers", func(c *Config) { c.Events.Driver = "kafka" }, "brokers"},
		{"no api", func(c *Config) { c.API.BaseURL = "" }, "base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWizardConfig_Timeline(t *testing.T) {
	tl := WizardConfig{Abandon: 48 * time.Hour}.Timeline()
	assert.Equal(t, shared.FirstReminderAfter, tl.FirstReminder)
	assert.Equal(t, shared.SecondReminderAfter, tl.SecondReminder)
	assert.Equal(t, 48*time.Hour, tl.Abandon)
}
