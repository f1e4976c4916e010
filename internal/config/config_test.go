package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmcdonald/minizip/internal/archive"
	"github.com/jmcdonald/minizip/internal/codec"
	"github.com/jmcdonald/minizip/internal/zipfmt"
)

// withHome points HOME at a fresh temp dir and returns it.
func withHome(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	return tempDir
}

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	configDir := filepath.Join(home, ".minizip")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "best" {
		t.Errorf("Level = %q, expected %q", cfg.Level, "best")
	}
	if cfg.Method != "deflate" {
		t.Errorf("Method = %q, expected %q", cfg.Method, "deflate")
	}
	if cfg.Duplicates != "append" {
		t.Errorf("Duplicates = %q, expected %q", cfg.Duplicates, "append")
	}
	if cfg.InPlace {
		t.Error("InPlace should default to false")
	}
	if cfg.MaxMemberSize != DefaultMaxMemberSize {
		t.Errorf("MaxMemberSize = %d, expected %d", cfg.MaxMemberSize, DefaultMaxMemberSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingConfig(t *testing.T) {
	withHome(t)

	// Load config - should return defaults when file missing
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed for missing config: %v", err)
	}
	if cfg.Level != "best" {
		t.Errorf("Expected default level, got %q", cfg.Level)
	}
}

func TestLoadValidConfig(t *testing.T) {
	home := withHome(t)
	writeConfig(t, home, `
level: fast
method: zstd
duplicates: replace
in_place: true
max_member_size: 4096
no_color: true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Level != "fast" {
		t.Errorf("Level = %q, expected %q", cfg.Level, "fast")
	}
	if cfg.Method != "zstd" {
		t.Errorf("Method = %q, expected %q", cfg.Method, "zstd")
	}
	if cfg.Duplicates != "replace" {
		t.Errorf("Duplicates = %q, expected %q", cfg.Duplicates, "replace")
	}
	if !cfg.InPlace || !cfg.NoColor {
		t.Errorf("booleans not loaded: %+v", cfg)
	}
	if cfg.MaxMemberSize != 4096 {
		t.Errorf("MaxMemberSize = %d, expected 4096", cfg.MaxMemberSize)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	home := withHome(t)
	writeConfig(t, home, `level: 3`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Level != "3" {
		t.Errorf("Level = %q, expected %q", cfg.Level, "3")
	}
	// Other fields should have defaults
	if cfg.Method != "deflate" {
		t.Errorf("Method = %q, expected default %q", cfg.Method, "deflate")
	}
}

func TestLoadMalformedConfig(t *testing.T) {
	home := withHome(t)
	writeConfig(t, home, "this: is: not: valid: yaml: [[[")

	if _, err := Load(); err == nil {
		t.Error("Load should fail for malformed YAML")
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"level", "level: ludicrous"},
		{"level out of range", "level: 12"},
		{"method", "method: bzip2"},
		{"duplicates", "duplicates: overwrite"},
		{"max member size", "max_member_size: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := withHome(t)
			writeConfig(t, home, tt.content)

			_, err := Load()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load error = %v, expected ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadReadFileError(t *testing.T) {
	home := withHome(t)

	// Create config file that's a directory (to cause read error)
	configPath := filepath.Join(home, ".minizip", "config.yaml")
	if err := os.MkdirAll(configPath, 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load should fail when config file is a directory")
	}
}

func TestSaveConfig(t *testing.T) {
	home := withHome(t)

	cfg := DefaultConfig()
	cfg.Level = "fastest"
	cfg.InPlace = true

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	configPath := filepath.Join(home, ".minizip", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
	if !strings.Contains(string(data), "in_place: true") {
		t.Errorf("saved config missing in_place:\n%s", data)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded.Level != "fastest" || !loaded.InPlace {
		t.Errorf("save/load mismatch: %+v", loaded)
	}
}

func TestSaveMkdirAllError(t *testing.T) {
	home := withHome(t)

	// A file where the config directory should be makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(home, ".minizip"), []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if err := DefaultConfig().Save(); err == nil {
		t.Error("Save should fail when MkdirAll fails")
	}
}

func TestConfigPath(t *testing.T) {
	home := withHome(t)

	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath failed: %v", err)
	}
	if path != filepath.Join(home, ".minizip", "config.yaml") {
		t.Errorf("ConfigPath = %q", path)
	}
}

func TestAddOptions(t *testing.T) {
	cfg := &Config{Level: "7", Method: "zstd", Duplicates: "replace", InPlace: true}

	opts, err := cfg.AddOptions()
	if err != nil {
		t.Fatalf("AddOptions failed: %v", err)
	}
	if opts.Level != codec.LevelBetter {
		t.Errorf("Level = %v, expected %v", opts.Level, codec.LevelBetter)
	}
	if opts.Method != zipfmt.Zstd {
		t.Errorf("Method = %v, expected zstd", opts.Method)
	}
	if opts.Duplicates != archive.DuplicateReplace {
		t.Errorf("Duplicates = %v, expected replace", opts.Duplicates)
	}
	if !opts.InPlace {
		t.Error("InPlace not carried over")
	}

	cfg.Method = "lzma"
	if _, err := cfg.AddOptions(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("AddOptions with bad method: %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected zipfmt.Method
		wantErr  bool
	}{
		{"deflate", zipfmt.Deflate, false},
		{"", zipfmt.Deflate, false},
		{"ZSTD", zipfmt.Zstd, false},
		{"stored", zipfmt.Store, false},
		{"store", zipfmt.Store, false},
		{"lz4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseMethod(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := withHome(t)

	tests := []struct {
		input    string
		expected string
	}{
		{"~/archives/a.zip", filepath.Join(home, "archives", "a.zip")},
		{"~", home},
		{"/absolute/path.zip", "/absolute/path.zip"},
		{"relative/path.zip", "relative/path.zip"},
		{"~user/a.zip", "~user/a.zip"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) failed: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNoHome(t *testing.T) {
	t.Setenv("HOME", "")

	if _, err := ExpandPath("~/a.zip"); !errors.Is(err, ErrNoHomeDir) {
		t.Errorf("ExpandPath: expected ErrNoHomeDir, got %v", err)
	}
	if _, err := ConfigPath(); !errors.Is(err, ErrNoHomeDir) {
		t.Errorf("ConfigPath: expected ErrNoHomeDir, got %v", err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load should fail when HOME is not set")
	}
	if err := DefaultConfig().Save(); err == nil {
		t.Error("Save should fail when HOME is not set")
	}

	// Non-tilde paths should still work
	result, err := ExpandPath("/absolute/path")
	if err != nil || result != "/absolute/path" {
		t.Errorf("ExpandPath(/absolute/path) = %q, %v", result, err)
	}
}
