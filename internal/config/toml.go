// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play  PlayConfig  `toml:"play"`
	Stats StatsConfig `toml:"stats"`
}

// PlayConfig maps play-related settings.
type PlayConfig struct {
	Game       *string  `toml:"game"`
	Seed       *int64   `toml:"seed"`
	FocusWeak  *bool    `toml:"focus-weak"`
	WeakTop    *int     `toml:"weak-top"`
	WeakFactor *float64 `toml:"weak-factor"`
	WeakWindow *int     `toml:"weak-window"`
	Watch      *bool    `toml:"watch"`
	CatalogDir *string  `toml:"catalog-dir"`
	FeedbackMs *int     `toml:"feedback-ms"`
}

// StatsConfig maps stats screen settings.
type StatsConfig struct {
	CurveWindow *int    `toml:"curve-window"`
	Items       *string `toml:"items"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Template is written when the config command creates a new file.
const Template = `# petrogames configuration

[play]
# game = "classification"
# seed = 42
# focus-weak = false
# weak-top = 3
# weak-factor = 2.0
# weak-window = 20
# watch = false
# catalog-dir = ""
# feedback-ms = 1200

[stats]
# curve-window = 5
# items = "comet, spiral"
`
