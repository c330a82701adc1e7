package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "size_limit", cfg.Maintenance.Policy)
	assert.False(t, cfg.Maintenance.Enabled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stratum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: json
maintenance:
  enabled: true
  interval: 30s
  policy: age
  max_age: 2h
tiers:
  runtime_max_entities: 500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Maintenance.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Maintenance.Interval)
	assert.Equal(t, "age", cfg.Maintenance.Policy)
	assert.Equal(t, 2*time.Hour, cfg.Maintenance.MaxAge)
	assert.Equal(t, 500, cfg.Tiers.RuntimeMaxEntities)

	t.Run("unset fields keep defaults", func(t *testing.T) {
		assert.Equal(t, 1_000_000, cfg.Tiers.StoreMaxEntities)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/no/such/file.yaml")
	assert.Error(t, err)

	t.Run("empty path is the defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STRATUM_LOG_LEVEL", "warn")
	t.Setenv("STRATUM_MAINTENANCE_POLICY", "access_count")
	t.Setenv("STRATUM_RUNTIME_MAX_ENTITIES", "42")
	t.Setenv("STRATUM_MAINTENANCE_INTERVAL", "5m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "access_count", cfg.Maintenance.Policy)
	assert.Equal(t, 42, cfg.Tiers.RuntimeMaxEntities)
	assert.Equal(t, 5*time.Minute, cfg.Maintenance.Interval)

	t.Run("unparseable values keep the configured ones", func(t *testing.T) {
		t.Setenv("STRATUM_RUNTIME_MAX_ENTITIES", "lots")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Tiers.RuntimeMaxEntities, cfg.Tiers.RuntimeMaxEntities)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad policy", func(c *Config) { c.Maintenance.Policy = "random" }},
		{"zero interval while enabled", func(c *Config) {
			c.Maintenance.Enabled = true
			c.Maintenance.Interval = 0
		}},
		{"negative tier limit", func(c *Config) { c.Tiers.RuntimeMaxEntities = -1 }},
		{"negative rate", func(c *Config) { c.Maintenance.MovesPerSecond = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
