// Package envconfig reads process-level settings from CRAFTLAUNCH_*
// environment variables.
package envconfig

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is shared by every variable in Config.
const Prefix = "CRAFTLAUNCH_"

// DotenvFile is read from the working directory when present.
const DotenvFile = ".env"

// Config is what the process environment can set before any settings file is read.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
	JSONLog     bool   `env:"JSON_LOG"`
	LogPath     string `env:"LOG_PATH"`
	DataDir     string `env:"DATA_DIR"`
	KeepScripts bool   `env:"KEEP_SCRIPTS"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadDotenv copies variables from each file into the process environment.
// Variables that are already set win. Missing files are skipped.
func LoadDotenv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
