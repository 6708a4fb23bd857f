// File path: internal/workflow/config.go
package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nicodishanthj/Katral_bw/internal/classify"
	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

const (
	defaultConcurrency = 4
	defaultPackageRoot = "com.example"
	defaultOutputRoot  = "output"
)

var defaultProcessExtensions = []string{".process", ".bwp"}

// Config drives one pipeline run.
type Config struct {
	InputRoot         string          `yaml:"input"`
	OutputRoot        string          `yaml:"output"`
	Concurrency       int             `yaml:"concurrency"`
	Architecture      ir.Architecture `yaml:"architecture"`
	ServiceType       string          `yaml:"service_type"`
	PackageRoot       string          `yaml:"package_root"`
	Validate          bool            `yaml:"validate"`
	Package           bool            `yaml:"package"`
	ProcessExtensions []string        `yaml:"process_extensions"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		OutputRoot:        defaultOutputRoot,
		Concurrency:       defaultConcurrency,
		Architecture:      ir.ArchitectureLayered,
		PackageRoot:       defaultPackageRoot,
		Validate:          true,
		Package:           true,
		ProcessExtensions: append([]string(nil), defaultProcessExtensions...),
	}
}

// LoadConfig starts from the defaults, applies the YAML file named by
// BWMIGRATE_CONFIG_FILE and then BWMIGRATE_* environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("BWMIGRATE_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read workflow config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse workflow config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_INPUT")); v != "" {
		c.InputRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_OUTPUT")); v != "" {
		c.OutputRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse BWMIGRATE_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_ARCHITECTURE")); v != "" {
		c.Architecture = ir.Architecture(v)
	}
	if v, ok := os.LookupEnv("BWMIGRATE_SERVICE_TYPE"); ok {
		c.ServiceType = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_PACKAGE_ROOT")); v != "" {
		c.PackageRoot = v
	}
	for key, target := range map[string]*bool{
		"BWMIGRATE_VALIDATE": &c.Validate,
		"BWMIGRATE_PACKAGE":  &c.Package,
	} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*target = parsed
	}
	if v := strings.TrimSpace(os.Getenv("BWMIGRATE_PROCESS_EXTENSIONS")); v != "" {
		c.ProcessExtensions = strings.Split(v, ",")
	}
	return nil
}

// Normalize canonicalizes the configuration in place and rejects values no
// run could use.
func (c *Config) Normalize() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	arch, ok := ir.ParseArchitecture(string(c.Architecture))
	if !ok {
		return fmt.Errorf("unknown architecture %q", c.Architecture)
	}
	c.Architecture = arch
	c.ServiceType = strings.ToLower(strings.TrimSpace(c.ServiceType))
	if c.ServiceType != "" {
		if _, ok := classify.FromOverride(c.ServiceType); !ok {
			return fmt.Errorf("unknown service type %q", c.ServiceType)
		}
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		c.OutputRoot = defaultOutputRoot
	}
	if strings.TrimSpace(c.PackageRoot) == "" {
		c.PackageRoot = defaultPackageRoot
	}
	var exts []string
	for _, ext := range c.ProcessExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append([]string(nil), defaultProcessExtensions...)
	}
	c.ProcessExtensions = exts
	return nil
}

// IsProcessFile reports whether name carries a process-definition extension.
func (c Config) IsProcessFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range c.ProcessExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
