// Package config holds the launcher-wide settings, persisted as
// comet_settings.json at the launcher root. Per-instance settings live
// with the instance instead.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const FileName = "comet_settings.json"

type Config struct {
	Username string `json:"username"`

	// DefaultRAMInMB seeds new instances; 0 means size from the
	// machine's memory.
	DefaultRAMInMB int `json:"default_ram_in_mb,omitempty"`

	// JavaPath overrides runtime provisioning for every instance that
	// has no override of its own.
	JavaPath string `json:"java_path,omitempty"`

	Versions Versions `json:"versions"`
}

// Versions pins what this settings file was written by, for
// migrations.
type Versions struct {
	Launcher string `json:"launcher"`
}

func Default() *Config {
	return &Config{Username: "Player"}
}

// Load reads the settings from the launcher root, returning defaults
// when the file does not exist yet.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the settings atomically into the launcher root.
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(root, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
