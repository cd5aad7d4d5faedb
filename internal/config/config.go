// Package config reads process configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the engine.
type Config struct {
	// DBPath is the sqlite database file.
	DBPath string
	// Timezone is the IANA name of the school timezone. Weekday and date
	// derivation always happens in this zone, never in the host zone.
	Timezone string
	// UndoWindow is how long a stuck mark stays cancellable.
	UndoWindow time.Duration
	// LogPath receives structured operational logs; empty disables them.
	LogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath:     defaultDBPath(),
		Timezone:   "America/Chicago",
		UndoWindow: 15 * time.Second,
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for any unset or invalid values.
func Load() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SCHOOLDAY_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SCHOOLDAY_TZ"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("SCHOOLDAY_UNDO_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.UndoWindow = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SCHOOLDAY_LOG"); v != "" {
		cfg.LogPath = v
	}
	return cfg
}

// Location resolves the configured timezone, falling back to UTC when the
// name does not resolve on this host.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "schoolday.db"
	}
	return home + "/.schoolday/schoolday.db"
}
