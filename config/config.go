// Package config loads library defaults from an optional YAML file, merged
// with built-in defaults and overridden by environment variables.
package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/aschepis/aichat/llm"
)

// Environment variables recognized by Load and chat.New.
const (
	APIKeyEnvVar      = "OPENAI_API_KEY"
	ProxyEnvVar       = "AICHAT_PROXY"
	ModelEnvVar       = "AICHAT_MODEL"
	ImageFolderEnvVar = "AICHAT_IMAGE_FOLDER"
	BaseURLEnvVar     = "OPENAI_BASE_URL"
)

// Config holds library-level settings.
type Config struct {
	APIKey       string `yaml:"api_key,omitempty"`         // Bearer credential; prefer the env var
	APIKeyEnvVar string `yaml:"api_key_env_var,omitempty"` // Env var to source the credential from
	Model        string `yaml:"model,omitempty"`           // Default model name
	BaseURL      string `yaml:"base_url,omitempty"`        // Custom provider base URL
	Proxy        *bool  `yaml:"proxy,omitempty"`           // Route through the proxy relay
	ImageFolder  string `yaml:"image_folder,omitempty"`    // Artifact output directory
	LogLevel     string `yaml:"log_level,omitempty"`       // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIKeyEnvVar: APIKeyEnvVar,
		Model:        "gpt-4.1-nano",
		ImageFolder:  "./images",
	}
}

// Load reads a YAML configuration file, merges it over the defaults, and
// applies environment overrides. A missing file is not an error; the
// defaults (plus env) are returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path is intentional
	switch {
	case os.IsNotExist(err):
		// Fall through to defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("failed to merge config defaults: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(ModelEnvVar); v != "" {
		c.Model = v
	}
	if v := os.Getenv(ImageFolderEnvVar); v != "" {
		c.ImageFolder = v
	}
	if v := os.Getenv(BaseURLEnvVar); v != "" {
		c.BaseURL = v
	}
	if v, ok := os.LookupEnv(ProxyEnvVar); ok {
		proxy := v == "true"
		c.Proxy = &proxy
	}
}

// ResolveAPIKey returns the credential: the explicit value wins, then the
// configured environment variable. A missing credential is a ConfigError at
// load time, not deferred to the first request.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	envVar := c.APIKeyEnvVar
	if envVar == "" {
		envVar = APIKeyEnvVar
	}
	key, ok := os.LookupEnv(envVar)
	if !ok || key == "" {
		return "", llm.NewConfigError("environment variable %s is not set", envVar)
	}
	return key, nil
}
