package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "America/Chicago", cfg.Timezone)
	assert.Equal(t, 15*time.Second, cfg.UndoWindow)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Empty(t, cfg.LogPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCHOOLDAY_DB", "/tmp/test.db")
	t.Setenv("SCHOOLDAY_TZ", "Europe/Berlin")
	t.Setenv("SCHOOLDAY_UNDO_SECONDS", "30")
	t.Setenv("SCHOOLDAY_LOG", "/tmp/test.log")

	cfg := Load()
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.UndoWindow)
	assert.Equal(t, "/tmp/test.log", cfg.LogPath)
}

func TestLoadIgnoresInvalidUndoSeconds(t *testing.T) {
	t.Setenv("SCHOOLDAY_UNDO_SECONDS", "soon")
	assert.Equal(t, 15*time.Second, Load().UndoWindow)

	t.Setenv("SCHOOLDAY_UNDO_SECONDS", "-3")
	assert.Equal(t, 15*time.Second, Load().UndoWindow)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	assert.Equal(t, time.UTC, cfg.Location())
}
