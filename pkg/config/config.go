package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for unsafecount.
type Config struct {
	// File exclusion rules applied when expanding directories
	Exclude ExcludeConfig `koanf:"exclude"`

	// Result cache settings
	Cache CacheConfig `koanf:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// ExcludeConfig defines file exclusion rules. They only apply to files
// found by walking a directory; files named on the command line are always
// analyzed.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format"` // text, table, markdown, json, toon
	Color  bool   `koanf:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Exclude: ExcludeConfig{
			Dirs: []string{
				".git",
				".unsafecount",
				"target",
				"vendor",
				"node_modules",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".unsafecount/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	return cfg, nil
}

// Standard config file names, in lookup order.
var configNames = []string{
	"unsafecount.toml",
	"unsafecount.yaml",
	"unsafecount.yml",
	"unsafecount.json",
	".unsafecount.toml",
	".unsafecount.yaml",
	".unsafecount.yml",
	".unsafecount.json",
}

// Discover returns the first config file found in the current directory or
// in .unsafecount, or "" if there is none.
func Discover() string {
	for _, dir := range []string{".", ".unsafecount"} {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the discovered config file, or returns the defaults
// when there is none. A config file that fails to load yields the defaults
// together with the load error.
func LoadOrDefault() (*Config, error) {
	path := Discover()
	if path == "" {
		return DefaultConfig(), nil
	}

	cfg, err := Load(path)
	if err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// ExcludesDir reports whether a directory with the given base name is
// skipped during expansion.
func (c *Config) ExcludesDir(name string) bool {
	return slices.Contains(c.Exclude.Dirs, name)
}
