// Package config loads YAML configuration with environment variable
// expansion, so secrets like the Gemini API key can live in the
// environment instead of the file.
package config

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Registry RegistryConfig `yaml:"registry"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Preview  PreviewConfig  `yaml:"preview"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if err := c.Gemini.Validate(); err != nil {
		return err
	}
	return c.Preview.Validate()
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RegistryConfig holds the path to the project registry database.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the registry configuration.
func (c *RegistryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// GeminiConfig holds the classification provider settings. APIKey is
// normally written as ${GEMINI_API_KEY} in the file and expanded from
// the environment at load time.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Validate validates the provider configuration.
func (c *GeminiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
	)
}

// PreviewConfig holds GIF preview rendering settings.
type PreviewConfig struct {
	FPS       int `yaml:"fps"`
	Width     int `yaml:"width"`
	MaxColors int `yaml:"max_colors"`
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.FPS, validation.Min(1), validation.Max(30)),
		validation.Field(&c.Width, validation.Min(64), validation.Max(1920)),
		validation.Field(&c.MaxColors, validation.Min(2), validation.Max(256)),
	)
}

// NewDefaultConfig returns a Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Registry: RegistryConfig{Path: "./brollscout.db"},
		Gemini:   GeminiConfig{Model: "gemini-2.0-flash"},
		Preview:  PreviewConfig{FPS: 9, Width: 320, MaxColors: 96},
	}
}

// Load reads a YAML config file, expands ${VAR} references from the
// environment, applies it over the defaults and validates the result.
func Load(filename string) (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
