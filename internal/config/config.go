// Package config loads scheduleai configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backend names.
const (
	StoreBackendFile    = "file"
	StoreBackendKeyring = "keyring"
)

// Config contains the runtime configuration for the calendar access manager.
// All values can be set through SCHEDULEAI_-prefixed environment variables;
// command flags override them.
type Config struct {
	// BaseDir is the directory holding the client secret and user tokens.
	// Defaults to the platform cache directory ("scheduleai" subdirectory).
	BaseDir string `env:"BASE_DIR"`

	// ClientSecretFile is the path to the OAuth client secret JSON in
	// Google Cloud Console format. Defaults to <BaseDir>/credentials.json.
	ClientSecretFile string `env:"CLIENT_SECRET_FILE"`

	// StoreBackend selects the credential store: "file" or "keyring".
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`

	// FlowTimeout bounds the interactive authorization wait.
	FlowTimeout time.Duration `env:"FLOW_TIMEOUT" envDefault:"5m"`

	// CallbackPort controls the loopback listener for the authorization
	// redirect: -1 derives a per-user port from the user hash (range
	// 8000-8999), 0 asks the OS for an ephemeral port, any other value is
	// used as-is.
	CallbackPort int `env:"CALLBACK_PORT" envDefault:"-1"`

	// EventPageSize caps the number of events requested from the provider.
	// Only the first page is fetched.
	EventPageSize int64 `env:"EVENT_PAGE_SIZE" envDefault:"50"`
}

// New loads configuration from the environment and fills in derived defaults.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SCHEDULEAI_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.BaseDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine cache directory: %w", err)
		}
		cfg.BaseDir = filepath.Join(cacheDir, "scheduleai")
	}
	if cfg.ClientSecretFile == "" {
		cfg.ClientSecretFile = filepath.Join(cfg.BaseDir, "credentials.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that env parsing cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendFile, StoreBackendKeyring:
	default:
		return fmt.Errorf("invalid store backend %q, must be one of: file, keyring", c.StoreBackend)
	}
	if c.FlowTimeout <= 0 {
		return fmt.Errorf("flow timeout must be positive, got %s", c.FlowTimeout)
	}
	if c.CallbackPort < -1 || c.CallbackPort > 65535 {
		return fmt.Errorf("callback port must be -1, 0 or a valid port, got %d", c.CallbackPort)
	}
	if c.EventPageSize <= 0 {
		return fmt.Errorf("event page size must be positive, got %d", c.EventPageSize)
	}
	return nil
}

// TokensDir returns the directory holding per-user token records.
func (c *Config) TokensDir() string {
	return filepath.Join(c.BaseDir, "user_tokens")
}
