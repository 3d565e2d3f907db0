// Package config loads the daemon's layered configuration: the main config
// file, the safety limits document, and the opaque profile directories
// (policies, species, terrariums).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon. Zero values mean
// "unspecified" and are replaced by defaults in main.
type Config struct {
	Addr                   string   `json:"addr" yaml:"addr" toml:"addr"`
	ConfigDir              string   `json:"config_dir" yaml:"config_dir" toml:"config_dir"`
	LogLevel               string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LoopIntervalSeconds    float64  `json:"loop_interval_seconds" yaml:"loop_interval_seconds" toml:"loop_interval_seconds"`
	WatchdogIntervalSecs   float64  `json:"watchdog_interval_seconds" yaml:"watchdog_interval_seconds" toml:"watchdog_interval_seconds"`
	WatchdogTimeoutSeconds float64  `json:"watchdog_timeout_seconds" yaml:"watchdog_timeout_seconds" toml:"watchdog_timeout_seconds"`
	CORSEnabled            bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins            []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// decodeFile unmarshals path into v, switching the decoder on the file
// extension.
func decodeFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, v)
	case ".json":
		return json.Unmarshal(b, v)
	case ".toml":
		return toml.Unmarshal(b, v)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
