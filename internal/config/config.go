package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	List    ListConfig    `toml:"list"`
}

type StorageConfig struct {
	// DataDir is where entries live. A leading ~/ is expanded.
	DataDir string `toml:"data_dir"`
	// Backend selects the storage layout: "dir" (default) or "bolt".
	Backend string `toml:"backend"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ListConfig struct {
	// TimeFormat is "rfc3339", "unix", or a Go reference layout.
	TimeFormat string `toml:"time_format"`
}

// Defaults returns a Config with sane defaults. The data directory
// follows the platform convention (XDG on Linux, Application Support on
// macOS, AppData on Windows).
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: filepath.Join(xdg.DataHome, "stash"),
			Backend: "dir",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		List: ListConfig{
			TimeFormat: "rfc3339",
		},
	}
}

// DefaultPath is where Load looks when no config path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "stash", "config.toml")
}

// Load reads a TOML config file over the defaults. If path is empty the
// default location is tried; a missing file there is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
