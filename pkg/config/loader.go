// Package config loads environment-driven configuration structs.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultDotEnvFiles are the files LoadDotEnv considers, highest priority
// first.
var DefaultDotEnvFiles = []string{".env.local", ".env"}

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadDotEnv loads the given .env files into the process environment and
// returns the ones that existed. Variables already set are never
// overwritten, so the real environment wins over .env.local, which wins over
// .env. With no arguments DefaultDotEnvFiles is used.
func LoadDotEnv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = DefaultDotEnvFiles
	}

	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) == 0 {
		return nil, nil
	}
	if err := godotenv.Load(loaded...); err != nil {
		return loaded, fmt.Errorf("load dotenv: %w", err)
	}
	return loaded, nil
}
