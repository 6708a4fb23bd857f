// File path: internal/vector/config.go
package vector

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultCollection   = "bwmigrate_activities"
	defaultTimeout      = 10 * time.Second
	defaultMaxIdleConns = 16
	defaultChromaPort   = "8000"
)

// Config describes the ChromaDB mirror. The mirror is enabled exactly when
// an endpoint URL is known after loading.
type Config struct {
	Enabled      bool          `yaml:"-"`
	URL          string        `yaml:"url"`
	Collection   string        `yaml:"collection"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
}

// BaseURL is the API root for the configured endpoint.
func (c Config) BaseURL() string {
	return strings.TrimRight(c.URL, "/") + "/api/v1"
}

// LoadConfig reads CHROMADB_CONFIG_FILE (YAML or JSON) and then applies the
// CHROMADB_* environment variables on top.
func LoadConfig() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CHROMADB_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read chromadb config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse chromadb config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if raw := strings.TrimSpace(os.Getenv("CHROMADB_URL")); raw != "" {
		c.URL = raw
	}
	// CHROMADB_HOST and CHROMADB_PORT are accepted for compose-style setups.
	if host := strings.TrimSpace(os.Getenv("CHROMADB_HOST")); host != "" {
		port := strings.TrimSpace(os.Getenv("CHROMADB_PORT"))
		if port == "" {
			port = defaultChromaPort
		}
		c.URL = "http://" + net.JoinHostPort(host, port)
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_COLLECTION")); v != "" {
		c.Collection = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_API_KEY")); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_TIMEOUT")); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CHROMADB_TIMEOUT: %w", err)
		}
		c.Timeout = timeout
	}
	if v := strings.TrimSpace(os.Getenv("CHROMADB_MAX_IDLE_CONNS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CHROMADB_MAX_IDLE_CONNS: %w", err)
		}
		c.MaxIdleConns = n
	}
	return nil
}

func (c *Config) normalize() error {
	c.URL = strings.TrimSpace(c.URL)
	if c.URL != "" {
		parsed, err := url.Parse(c.URL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("invalid chromadb endpoint %q", c.URL)
		}
		c.Enabled = true
	}
	if strings.TrimSpace(c.Collection) == "" {
		c.Collection = defaultCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	return nil
}
