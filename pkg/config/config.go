// Package config loads stratum configuration from a YAML file with
// environment-variable overrides.
//
// Precedence, lowest to highest: built-in defaults, config file,
// STRATUM_* environment variables. Load applies all three layers and
// validates the result.
//
// Example Usage:
//
//	cfg, err := config.Load("stratum.yaml")
//	if err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//	fmt.Printf("maintenance policy: %s\n", cfg.Maintenance.Policy)
//
// Environment Variables:
//   - STRATUM_LOG_LEVEL=debug|info|warn|error
//   - STRATUM_LOG_FORMAT=json|console
//   - STRATUM_RUNTIME_MAX_ENTITIES=100000
//   - STRATUM_STORE_MAX_ENTITIES=1000000
//   - STRATUM_MAINTENANCE_ENABLED=true
//   - STRATUM_MAINTENANCE_INTERVAL=1m
//   - STRATUM_MAINTENANCE_POLICY=size_limit|access_count|age
//   - STRATUM_SNAPSHOT_DIR=./stratum-data
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Tiers       TiersConfig       `yaml:"tiers"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
}

// LoggingConfig controls the zap logger the CLI builds.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
}

// TiersConfig sets the soft size limits the maintenance loop enforces.
// Zero disables the limit for that tier.
type TiersConfig struct {
	RuntimeMaxEntities int `yaml:"runtime_max_entities"`
	StoreMaxEntities   int `yaml:"store_max_entities"`
}

// MaintenanceConfig drives the background pruner in pkg/maintain.
type MaintenanceConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`

	// Policy selects the demotion rule applied every interval:
	// size_limit, access_count, or age.
	Policy string `yaml:"policy"`

	// AccessThreshold applies to the access_count policy.
	AccessThreshold int64 `yaml:"access_threshold"`
	// MaxAge applies to the age policy.
	MaxAge time.Duration `yaml:"max_age"`

	// MovesPerSecond paces demotion so a bulk demotion pass cannot
	// monopolize the store's write lock. Zero means unpaced.
	MovesPerSecond float64 `yaml:"moves_per_second"`
}

// SnapshotConfig locates the on-disk snapshot store.
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tiers: TiersConfig{
			RuntimeMaxEntities: 100_000,
			StoreMaxEntities:   1_000_000,
		},
		Maintenance: MaintenanceConfig{
			Enabled:        false,
			Interval:       time.Minute,
			Policy:         "size_limit",
			MovesPerSecond: 10_000,
		},
		Snapshot: SnapshotConfig{
			Dir: "./stratum-data",
		},
	}
}

// Load reads the YAML file at path, layers it over the defaults, then
// applies environment overrides and validates. An empty path skips the
// file step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays STRATUM_* variables. Unparseable numeric or
// boolean values leave the configured value in place.
func (c *Config) applyEnv() {
	if v := os.Getenv("STRATUM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STRATUM_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("STRATUM_RUNTIME_MAX_ENTITIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Tiers.RuntimeMaxEntities = n
		}
	}
	if v := os.Getenv("STRATUM_STORE_MAX_ENTITIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Tiers.StoreMaxEntities = n
		}
	}
	if v := os.Getenv("STRATUM_MAINTENANCE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Maintenance.Enabled = b
		}
	}
	if v := os.Getenv("STRATUM_MAINTENANCE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Maintenance.Interval = d
		}
	}
	if v := os.Getenv("STRATUM_MAINTENANCE_POLICY"); v != "" {
		c.Maintenance.Policy = v
	}
	if v := os.Getenv("STRATUM_SNAPSHOT_DIR"); v != "" {
		c.Snapshot.Dir = v
	}
}

// Validate checks for values the runtime cannot work with.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
	switch c.Maintenance.Policy {
	case "size_limit", "access_count", "age":
	default:
		return fmt.Errorf("config: unknown maintenance policy %q", c.Maintenance.Policy)
	}
	if c.Maintenance.Enabled && c.Maintenance.Interval <= 0 {
		return fmt.Errorf("config: maintenance interval must be positive, got %s", c.Maintenance.Interval)
	}
	if c.Tiers.RuntimeMaxEntities < 0 || c.Tiers.StoreMaxEntities < 0 {
		return fmt.Errorf("config: tier limits must not be negative")
	}
	if c.Maintenance.MovesPerSecond < 0 {
		return fmt.Errorf("config: moves_per_second must not be negative")
	}
	return nil
}
