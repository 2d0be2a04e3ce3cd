package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDatabaseDSN = "CRM_DATABASE_DSN"
	EnvSecretKey   = "CRM_SECRET_KEY"
	EnvTokenTTL    = "CRM_TOKEN_TTL"
	EnvTokenFile   = "CRM_TOKEN_FILE"
	EnvLogLevel    = "CRM_LOG_LEVEL"
)

// parseEnv loads envFile into the process environment (variables already
// set win, a missing file is ignored) and overlays cfg with the CRM_*
// variables.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv(EnvTokenTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTokenTTL, err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		cfg.TokenFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}
