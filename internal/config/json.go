package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/epicevents/crm/internal/timex"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// JsonConfig is the on-disk shape of the optional configuration file.
// JSON files may carry comments and trailing commas; files ending in .yaml
// or .yml are read as YAML. Durations accept strings such as "30m" or
// integer nanoseconds. Fields left out keep their previous values.
type JsonConfig struct {
	DatabaseDSN string          `json:"database_dsn" yaml:"database_dsn"`
	SecretKey   string          `json:"secret_key" yaml:"secret_key"`
	TokenTTL    *timex.Duration `json:"token_ttl" yaml:"token_ttl"`
	TokenFile   string          `json:"token_file" yaml:"token_file"`
	LogLevel    string          `json:"log_level" yaml:"log_level"`
}

// parseJson overlays cfg with the file at path. An empty path loads nothing.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &jc)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &jc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.TokenTTL != nil {
		cfg.TokenTTL = jc.TokenTTL.Duration
	}
	if jc.TokenFile != "" {
		cfg.TokenFile = jc.TokenFile
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
