package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the fleetctl configuration, loaded from a YAML file with
// environment overrides (FLEETDASH_URL, FLEETDASH_DEBUG).
type Config struct {
	BaseURL string `yaml:"base_url"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Client struct {
		Timeout       time.Duration `yaml:"timeout"`
		UploadTimeout time.Duration `yaml:"upload_timeout"`
		Retries       int           `yaml:"retries"`
		RetryDelay    time.Duration `yaml:"retry_delay"`
	} `yaml:"client"`
}

// LoadConfig reads the config file if it exists, then applies env
// overrides. A missing file is not an error; env alone is enough.
func LoadConfig(path string) (*Config, error) {
	// .env is optional developer convenience.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if url := os.Getenv("FLEETDASH_URL"); url != "" {
		cfg.BaseURL = url
	}
	if os.Getenv("FLEETDASH_DEBUG") != "" {
		cfg.Logging.Level = "debug"
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("no base URL: set base_url in %s or FLEETDASH_URL", path)
	}
	return cfg, nil
}
