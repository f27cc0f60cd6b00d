package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all client configuration.
type Config struct {
	// APIBaseURL is the base URL of the CampusOn backend.
	APIBaseURL string

	// RequestTimeout is the per-request HTTP timeout. Default: 15s.
	RequestTimeout time.Duration

	// HistoryDBPath is the path to the local attempt-history database.
	HistoryDBPath string

	// CredentialsPath is the path to the stored bearer credentials.
	CredentialsPath string

	// DepartmentsPath optionally points to a YAML department catalog that
	// replaces the built-in one.
	DepartmentsPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:     "https://api.campuson.kr",
		RequestTimeout: 15 * time.Second,
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if u := os.Getenv("CAMPUSON_API_URL"); u != "" {
		cfg.APIBaseURL = strings.TrimRight(u, "/")
	}
	if t := os.Getenv("CAMPUSON_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return cfg, fmt.Errorf("parse CAMPUSON_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if p := os.Getenv("CAMPUSON_DB"); p != "" {
		cfg.HistoryDBPath = p
	}
	if p := os.Getenv("CAMPUSON_CREDENTIALS"); p != "" {
		cfg.CredentialsPath = p
	}
	if p := os.Getenv("CAMPUSON_DEPARTMENTS"); p != "" {
		cfg.DepartmentsPath = p
	}

	if cfg.HistoryDBPath == "" {
		p, err := defaultDataPath("history.db")
		if err != nil {
			return cfg, err
		}
		cfg.HistoryDBPath = p
	}
	if cfg.CredentialsPath == "" {
		p, err := defaultDataPath("credentials.json")
		if err != nil {
			return cfg, err
		}
		cfg.CredentialsPath = p
	}

	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required (set CAMPUSON_API_URL)")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("API base URL must be http(s): %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// defaultDataPath resolves a file path under the CampusOn data directory:
// $XDG_DATA_HOME/campuson/<name>, or ~/.local/share/campuson/<name>.
func defaultDataPath(name string) (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	p := filepath.Join(base, "campuson", name)
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
