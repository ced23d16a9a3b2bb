// Package config handles srctool configuration loading and management.
package config

import (
	"time"

	"github.com/pkg/errors"
)

// Config holds all settings.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Model   ModelConfig   `yaml:"model"`
	Import  ImportConfig  `yaml:"import"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds model API connection settings.
type APIConfig struct {
	Host    string        `yaml:"host"`
	APIKey  string        `yaml:"api_key"`
	Scheme  string        `yaml:"scheme"`
	Timeout time.Duration `yaml:"timeout"`
}

// ModelConfig selects the model revision to import.
type ModelConfig struct {
	Teamspace string `yaml:"teamspace"`
	Model     string `yaml:"model"`
	Revision  string `yaml:"revision"` // empty = master head
}

// ImportConfig holds decode pipeline settings.
type ImportConfig struct {
	Concurrency  int  `yaml:"concurrency"`
	StrictMeshes bool `yaml:"strict_meshes"`
}

// OutputConfig holds export file settings.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	GLTFName  string `yaml:"gltf_name"`
	IDMapName string `yaml:"idmap_name"`
}

// ServerConfig holds development server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Scheme:  "https",
			Timeout: time.Hour,
		},
		Import: ImportConfig{
			Concurrency:  4,
			StrictMeshes: false,
		},
		Output: OutputConfig{
			Dir:       "out",
			GLTFName:  "supermesh.glb",
			IDMapName: "idmap.png",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8090",
			Root: ".",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}

// Validate reports the first setting no command can work with.
func (c *Config) Validate() error {
	switch c.API.Scheme {
	case "http", "https":
	default:
		return errors.Errorf("api.scheme %q: expected http or https", c.API.Scheme)
	}
	if c.API.Timeout <= 0 {
		return errors.Errorf("api.timeout %v: must be positive", c.API.Timeout)
	}
	if c.Import.Concurrency < 1 {
		return errors.Errorf("import.concurrency %d: must be at least 1", c.Import.Concurrency)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.Errorf("logging.level %q: expected debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Errorf("logging.format %q: expected console or json", c.Logging.Format)
	}
	return nil
}
