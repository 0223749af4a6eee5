// config/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config loads the YAML configuration shared by the xpapt
// commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Gateway GatewayConfig `yaml:"gateway"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// Dir is the directory for log files; the user's config directory
	// is used if it is empty.
	Dir string `yaml:"dir"`
}

// GatewayConfig configures access to the X-Plane Scenery Gateway.
type GatewayConfig struct {
	URL      string        `yaml:"url" validate:"required,url"`
	Retries  int           `yaml:"retries" validate:"gte=1,lte=50"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

type StorageConfig struct {
	// Bucket is a gs:// URL or a local directory; empty means the
	// current directory.
	Bucket string `yaml:"bucket"`
	// CredentialsEnv names the environment variable holding GCS service
	// account JSON.
	CredentialsEnv string `yaml:"credentials_env" validate:"omitempty,printascii"`
}

type CatalogConfig struct {
	Path string `yaml:"path" validate:"required"`
}

const DefaultGatewayURL = "https://gateway.x-plane.com"

func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Gateway: GatewayConfig{
			URL:      DefaultGatewayURL,
			Retries:  5,
			Timeout:  30 * time.Second,
			CacheTTL: time.Hour,
		},
		Storage: StorageConfig{CredentialsEnv: "XPAPT_GCS_CREDENTIALS"},
		Catalog: CatalogConfig{Path: "airports.sqlite"},
	}
}

// Load reads the configuration at path. Fields that aren't given in the
// file keep their default values; if the file doesn't exist, the
// defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}
