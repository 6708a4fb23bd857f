// File path: internal/sqlite/config.go
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxOpenConns = 4
	defaultBusyTimeout  = 5 * time.Second
	defaultConnLifetime = 15 * time.Minute
)

// Config controls the run catalog. An empty Path leaves the catalog
// disabled.
type Config struct {
	Path         string        `yaml:"path"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
}

// Enabled reports whether a catalog path is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Path) != ""
}

// LoadConfig reads the optional YAML file named by
// BWMIGRATE_CATALOG_CONFIG_FILE, then BWMIGRATE_CATALOG_* overrides.
func LoadConfig() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("BWMIGRATE_CATALOG_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read catalog config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse catalog config %s: %w", path, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_CATALOG_PATH")); v != "" {
		cfg.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_CATALOG_MAX_OPEN_CONNS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse BWMIGRATE_CATALOG_MAX_OPEN_CONNS: %w", err)
		}
		cfg.MaxOpenConns = n
	}
	for name, target := range map[string]*time.Duration{
		"BWMIGRATE_CATALOG_BUSY_TIMEOUT":  &cfg.BusyTimeout,
		"BWMIGRATE_CATALOG_CONN_LIFETIME": &cfg.ConnLifetime,
	} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", name, err)
			}
			*target = d
		}
	}
	cfg.withDefaults()
	return cfg, nil
}

func (c *Config) withDefaults() {
	c.Path = strings.TrimSpace(c.Path)
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.ConnLifetime <= 0 {
		c.ConnLifetime = defaultConnLifetime
	}
}
