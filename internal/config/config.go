// Package config loads feather.toml project settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// FileName is the config file looked up in a project root.
const FileName = "feather.toml"

type Config struct {
	// Spec is the path of a GmlSpec.xml overriding the embedded one.
	Spec     string            `toml:"spec"`
	Include  []string          `toml:"include"`
	Exclude  []string          `toml:"exclude"`
	Parallel int               `toml:"parallel"`
	LogLevel string            `toml:"log_level"`
	Assets   map[string]string `toml:"assets"`
	Watch    Watch             `toml:"watch"`
	Metrics  Metrics           `toml:"metrics"`

	include []glob.Glob
	exclude []glob.Glob
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no feather.toml exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	_ = cfg.compile()
	return cfg
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// LoadDir loads root/feather.toml, falling back to Default when the file
// does not exist.
func LoadDir(root string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes TOML text into a Config.
func Parse(text string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.compile(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**.gml"}
	}
	if len(cfg.Exclude) == 0 {
		cfg.Exclude = []string{".git/**", "**/.git/**", "datafiles/**"}
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.Assets == nil {
		cfg.Assets = map[string]string{}
	}
	if _, ok := cfg.Assets["scripts"]; !ok {
		cfg.Assets["scripts"] = "scripts"
	}
	if _, ok := cfg.Assets["objects"]; !ok {
		cfg.Assets["objects"] = "objects"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 250 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if cfg.Parallel < 0 {
		return fmt.Errorf("parallel must be >= 0, got %d", cfg.Parallel)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of: debug, info, warn, error; got %q", cfg.LogLevel)
	}
	return nil
}

func (c *Config) compile() error {
	c.include = c.include[:0]
	c.exclude = c.exclude[:0]
	for _, pattern := range c.Include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return fmt.Errorf("include %q: %w", pattern, err)
		}
		c.include = append(c.include, g)
	}
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return fmt.Errorf("exclude %q: %w", pattern, err)
		}
		c.exclude = append(c.exclude, g)
	}
	return nil
}

// Match reports whether rel, a slash-separated path relative to the
// project root, is selected by the include and exclude patterns.
func (c *Config) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range c.exclude {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range c.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// AssetKind returns the asset kind of rel: its first path segment mapped
// through the [assets] table, or "" when the segment is not listed.
func (c *Config) AssetKind(rel string) string {
	rel = filepath.ToSlash(rel)
	first, _, _ := strings.Cut(rel, "/")
	return c.Assets[first]
}
