// Package config loads and saves minizip's YAML settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmcdonald/minizip/internal/archive"
	"github.com/jmcdonald/minizip/internal/codec"
	"github.com/jmcdonald/minizip/internal/zipfmt"
)

// ErrNoHomeDir is returned when the user's home directory cannot be determined.
var ErrNoHomeDir = errors.New("cannot determine home directory")

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultMaxMemberSize caps how much of one source file is buffered (1 GiB).
const DefaultMaxMemberSize int64 = 1 << 30

type Config struct {
	Level         string `yaml:"level"`
	Method        string `yaml:"method"`
	Duplicates    string `yaml:"duplicates"`
	InPlace       bool   `yaml:"in_place"`
	MaxMemberSize int64  `yaml:"max_member_size"`
	NoColor       bool   `yaml:"no_color"`
}

func DefaultConfig() *Config {
	return &Config{
		Level:         "best",
		Method:        "deflate",
		Duplicates:    "append",
		InPlace:       false,
		MaxMemberSize: DefaultMaxMemberSize,
	}
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrNoHomeDir
	}
	return home, nil
}

func ConfigPath() (string, error) {
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".minizip", "config.yaml"), nil
}

// Load reads the config file, falling back to defaults for a missing file
// and for any field the file leaves out.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ParseMethod maps a config method name to a ZIP compression method.
func ParseMethod(s string) (zipfmt.Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deflate", "":
		return zipfmt.Deflate, nil
	case "zstd":
		return zipfmt.Zstd, nil
	case "store", "stored":
		return zipfmt.Store, nil
	default:
		return 0, fmt.Errorf("unknown method %q (want deflate, zstd or store)", s)
	}
}

// Validate checks every field without changing any.
func (c *Config) Validate() error {
	if _, err := codec.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("%w: level: %v", ErrInvalidConfig, err)
	}
	if _, err := ParseMethod(c.Method); err != nil {
		return fmt.Errorf("%w: method: %v", ErrInvalidConfig, err)
	}
	if _, err := archive.ParseDuplicates(c.Duplicates); err != nil {
		return fmt.Errorf("%w: duplicates: %v", ErrInvalidConfig, err)
	}
	if c.MaxMemberSize < 0 {
		return fmt.Errorf("%w: max_member_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// AddOptions turns the config into options for archive.AddMember.
func (c *Config) AddOptions() (archive.AddOptions, error) {
	if err := c.Validate(); err != nil {
		return archive.AddOptions{}, err
	}
	level, _ := codec.ParseLevel(c.Level)
	method, _ := ParseMethod(c.Method)
	dups, _ := archive.ParseDuplicates(c.Duplicates)

	return archive.AddOptions{
		Level:      level,
		Method:     method,
		Duplicates: dups,
		InPlace:    c.InPlace,
	}, nil
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
