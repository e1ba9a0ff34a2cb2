// Package config loads gateway settings from the process environment.
//
// All knobs are environment variables (optionally seeded from a .env file)
// rather than flags, because the service is normally deployed behind a
// process manager that injects secrets. Nothing here is reloaded after
// startup; a Config is effectively immutable once returned from Load.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting the gateway understands.
type Config struct {
	// VerifyToken is echoed back during the Meta webhook subscribe
	// handshake (GET /webhook).
	VerifyToken string `env:"VERIFY_TOKEN"`

	// AppSecret signs webhook deliveries (X-Hub-Signature-256). Empty
	// disables signature verification, which is insecure and logged as
	// such.
	AppSecret string `env:"APP_SECRET"`

	// AccessToken authenticates outbound Graph API calls.
	AccessToken string `env:"ACCESS_TOKEN"`

	// AccountID is the monitored Instagram business account ID.
	AccountID string `env:"INSTAGRAM_ACCOUNT_ID"`

	// Port the HTTP server listens on.
	Port int `env:"PORT" envDefault:"5000"`

	// Debug switches logging to a human-readable console handler at
	// DEBUG level.
	Debug bool `env:"DEBUG" envDefault:"false"`

	// LogLevel is the slog level name (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// PostsFile is the policy file mapping post IDs to auto-response
	// settings. JSON or YAML, decided by extension.
	PostsFile string `env:"POSTS_FILE" envDefault:"monitored_posts.json"`

	// DeliveryLog is an optional SQLite path; when set, every dispatch
	// action outcome is recorded there for later inspection.
	DeliveryLog string `env:"DELIVERY_LOG"`
}

// Load reads configuration from the environment. If a .env file exists in
// the working directory it is loaded first without overriding variables
// already present in the environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be in 1..65535 (got %d)", cfg.Port)
	}

	return cfg, nil
}

// Listen returns the listen address for the HTTP server.
func (c *Config) Listen() string {
	return fmt.Sprintf(":%d", c.Port)
}

// RequireCredentials fails when the Graph API credentials needed for
// outbound calls are missing. The webhook handshake alone works without
// them, so this is only enforced by commands that actually call out.
func (c *Config) RequireCredentials() error {
	if c.AccessToken == "" {
		return errors.New("ACCESS_TOKEN is not set")
	}
	if c.AccountID == "" {
		return errors.New("INSTAGRAM_ACCOUNT_ID is not set")
	}
	return nil
}
