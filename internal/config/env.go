package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds the environment overrides. Unset variables stay nil.
type EnvConfig struct {
	Game       *string `env:"PETROGAMES_GAME"`
	Seed       *int64  `env:"PETROGAMES_SEED"`
	CatalogDir *string `env:"PETROGAMES_CATALOG_DIR"`
	DBPath     *string `env:"PETROGAMES_DB"`
	Debug      bool    `env:"PETROGAMES_DEBUG"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads EnvConfig from the process environment.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := ParseEnv(&cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}
