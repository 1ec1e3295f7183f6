// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-level settings. Site-level settings live in the
// database and are resolved by the settings service.
type Config struct {
	Addr       string `env:"SQUIRRELWIKI_ADDR" envDefault:":8080"`
	DSN        string `env:"SQUIRRELWIKI_DSN" envDefault:"squirrelwiki.db"`
	DataDir    string `env:"SQUIRRELWIKI_DATA_DIR" envDefault:"data"`
	SessionKey string `env:"SQUIRRELWIKI_SESSION_KEY"`
	LogLevel   string `env:"SQUIRRELWIKI_LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
