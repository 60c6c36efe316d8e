// Package config loads optional TOML-driven compiler settings, following
// the shape of lookbusy1344-arm_emulator's config package: a struct of
// grouped settings, a DefaultConfig, and Load/LoadFrom/Save/SaveTo that
// fall back to the defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the compiler's optional settings. Everything here has a
// usable default, so cmd/cc can run with no config file at all.
type Config struct {
	// Output controls how generated assembly is produced and named.
	Output struct {
		Suffix     string `toml:"suffix"`      // replaces the input's extension, default ".s"
		EmitDebug  bool   `toml:"emit_debug"`  // prepend a debug marker comment
		TrimBlanks bool   `toml:"trim_blanks"` // loaded and saved only; cmd/cc does not read it
	} `toml:"output"`

	// Diagnostics holds strictness settings. They are loaded and saved
	// with the rest of the file; the front end does not read them.
	Diagnostics struct {
		WarningsAsErrors bool `toml:"warnings_as_errors"`
		MaxErrors        int  `toml:"max_errors"`
	} `toml:"diagnostics"`
}

// DefaultConfig returns the settings used when no config file is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Output.Suffix = ".s"
	cfg.Output.EmitDebug = false
	cfg.Output.TrimBlanks = false
	cfg.Diagnostics.WarningsAsErrors = false
	cfg.Diagnostics.MaxErrors = 1
	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "cc")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "cc.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "cc")

	default:
		return "cc.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "cc.toml"
	}

	return filepath.Join(configDir, "cc.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, returning the defaults
// unchanged if the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
