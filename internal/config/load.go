package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment overrides. They sit between the config file and the flags so
// an api key never has to be written to disk or shown in a process list.
const (
	EnvConfig = "SUPERMESH_CONFIG"
	EnvHost   = "SUPERMESH_HOST"
	EnvAPIKey = "SUPERMESH_API_KEY"
)

// fileNames are looked up, in order, in the working directory and then in
// ConfigDir.
var fileNames = []string{"srctool.yaml", "config.yaml"}

// Load builds the configuration with priority
// defaults < file < environment < flags, then validates it. flags may be nil.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	configPath := flags.ConfigPath()
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, errors.Wrapf(err, "loading config from %s", configPath)
		}
	}

	applyEnv(cfg)
	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if host := os.Getenv(EnvHost); host != "" {
		cfg.API.Host = host
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.API.APIKey = key
	}
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	dirs := []string{"."}
	if dir := ConfigDir(); dir != "" {
		dirs = append(dirs, dir)
	}

	for _, dir := range dirs {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory of srctool, or "" when
// the platform has none.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "supermesh")
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Unknown keys are rejected so a misspelt section does not go unnoticed.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrap(err, "parsing yaml")
	}
	return nil
}
