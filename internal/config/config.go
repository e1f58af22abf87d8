package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Refresh policies for an accepted group invitation.
const (
	RefreshGroups         = "groups"
	RefreshGroupsAndPosts = "groups_and_posts"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Sync    SyncConfig    `yaml:"sync"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds backend connection configuration
type ServerConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig holds session persistence configuration
type StorageConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// SyncConfig holds cache refresh configuration
type SyncConfig struct {
	// OnInvitationAccepted selects which caches are re-fetched after an
	// invitation is accepted: "groups" or "groups_and_posts".
	OnInvitationAccepted string `yaml:"on_invitation_accepted"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 15,
		},
		Storage: StorageConfig{
			Dir:  ".triptales",
			File: "session.db",
		},
		Sync: SyncConfig{
			OnInvitationAccepted: RefreshGroups,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration values that have a closed set of options.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	switch c.Sync.OnInvitationAccepted {
	case RefreshGroups, RefreshGroupsAndPosts:
	default:
		return fmt.Errorf("invalid sync.on_invitation_accepted: %q", c.Sync.OnInvitationAccepted)
	}
	return nil
}

// Timeout returns the per-request timeout for backend calls.
func (c *ServerConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
