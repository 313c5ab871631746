// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Defaults come from New; Load layers an optional YAML file and ICELIST_ env vars on top.
//   - Nested keys are addressed from the environment with a double underscore,
//     e.g. ICELIST_STORE__SPREADSHEET_ID -> store.spreadsheet_id.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxRank is the size of the tracked window of the main list.
	MaxRank int `koanf:"max_rank"`

	// DateLayout formats archive and waiting-list dates (Go reference layout).
	DateLayout string `koanf:"date_layout"`

	// DedupeSize bounds the idempotency-key cache of the HTTP surface.
	DedupeSize int `koanf:"dedupe_size"`

	Store StoreConfig `koanf:"store"`
	Tabs  TabsConfig  `koanf:"tabs"`
}

// StoreConfig selects and configures the tabular store backend.
type StoreConfig struct {
	// Backend is "sheets" for the remote spreadsheet or "memory" for a volatile local table set.
	Backend string `koanf:"backend"`

	SpreadsheetID   string `koanf:"spreadsheet_id"`
	CredentialsFile string `koanf:"credentials_file"`
	// CredentialsJSON holds a service account key inline; it wins over CredentialsFile.
	CredentialsJSON string `koanf:"credentials_json"`

	// RequestTimeoutMS bounds every remote call. Zero keeps the adapter default.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
}

// RequestTimeout returns the per-call timeout as a duration.
func (s StoreConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMS) * time.Millisecond
}

// TabsConfig names the worksheet backing each table.
type TabsConfig struct {
	Main        string `koanf:"main"`
	Archive     string `koanf:"archive"`
	Enjoyment   string `koanf:"enjoyment"`
	Rating      string `koanf:"rating"`
	Waiting     string `koanf:"waiting"`
	Extreme     string `koanf:"extreme"`
	PlayerLists string `koanf:"player_lists"`
	Leaderboard string `koanf:"leaderboard"`
	Aliases     string `koanf:"aliases"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		Addr:       ":9080",
		MaxRank:    75,
		DateLayout: "02/01/2006",
		DedupeSize: 10_000,
		Store: StoreConfig{
			Backend:          "sheets",
			RequestTimeoutMS: 15_000,
		},
		Tabs: TabsConfig{
			Main:        "list0",
			Archive:     "archive",
			Enjoyment:   "LE",
			Rating:      "LR",
			Waiting:     "waitinglist",
			Extreme:     "LX",
			PlayerLists: "Players Lists",
			Leaderboard: "Leaderboard",
			Aliases:     "infoplayer",
		},
	}
}

// Validate checks the invariants Load relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxRank < 1:
		return fmt.Errorf("%w: max_rank must be positive, got %d", ErrInvalidConfig, c.MaxRank)
	case c.DateLayout == "":
		return fmt.Errorf("%w: date_layout must not be empty", ErrInvalidConfig)
	case c.Store.RequestTimeoutMS < 0:
		return fmt.Errorf("%w: store.request_timeout_ms must not be negative", ErrInvalidConfig)
	}
	switch c.Store.Backend {
	case "memory":
	case "sheets":
		if c.Store.SpreadsheetID == "" {
			return fmt.Errorf("%w: store.spreadsheet_id is required for the sheets backend", ErrInvalidConfig)
		}
		if c.Store.CredentialsFile == "" && c.Store.CredentialsJSON == "" {
			return fmt.Errorf("%w: sheets backend needs store.credentials_file or store.credentials_json", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	for key, name := range c.Tabs.byKey() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: tabs.%s must not be empty", ErrInvalidConfig, key)
		}
	}
	return nil
}

func (t TabsConfig) byKey() map[string]string {
	return map[string]string{
		"main":         t.Main,
		"archive":      t.Archive,
		"enjoyment":    t.Enjoyment,
		"rating":       t.Rating,
		"waiting":      t.Waiting,
		"extreme":      t.Extreme,
		"player_lists": t.PlayerLists,
		"leaderboard":  t.Leaderboard,
		"aliases":      t.Aliases,
	}
}
