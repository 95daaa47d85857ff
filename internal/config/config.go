// Package config provides YAML-based configuration loading for Trellis.
//
// The token is sensitive and is normally supplied through the environment;
// the file carries instance coordinates. Environment values always win
// over file values.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names honored by Load.
const (
	EnvURL   = "TRELLIS_GITLAB_URL"
	EnvToken = "TRELLIS_GITLAB_TOKEN"
)

// Config holds everything needed to talk to one GitLab-compatible instance.
type Config struct {
	// URL is the instance root, e.g. "https://gitlab.example.com".
	URL string `yaml:"url"`
	// Token is the bearer token. Prefer TRELLIS_GITLAB_TOKEN over
	// writing it into the file.
	Token string `yaml:"token"`
	// APIPath is the GraphQL endpoint path.
	APIPath string `yaml:"api_path"`
	// DefaultProject, when set, seeds type discovery with a known
	// project path instead of probing memberships.
	DefaultProject string `yaml:"default_project"`
}

// Load reads configuration from path (optional — pass "" to rely on the
// environment alone) and applies environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, err
		}
		cfg = *parsed
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse unmarshals YAML bytes without applying environment overrides or
// validation. Exposed for tests and for callers that merge sources.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
}

func (c *Config) applyDefaults() {
	if c.APIPath == "" {
		c.APIPath = "/api/graphql"
	}
	c.URL = strings.TrimRight(c.URL, "/")
}

func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: instance URL is required (set %s or url in the config file)", EnvURL)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("config: instance URL %q must start with http:// or https://", c.URL)
	}
	if c.Token == "" {
		return fmt.Errorf("config: token is required (set %s)", EnvToken)
	}
	return nil
}
