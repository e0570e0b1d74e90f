package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunEntry records one scan run.
// Keep it compact and schema-stable.
type RunEntry struct {
	RunID     string    `json:"run_id"`
	GuildID   string    `json:"guild_id"`
	Trigger   string    `json:"trigger"` // "once" | "schedule"
	StartedAt time.Time `json:"started_at"`
	Since     time.Time `json:"since"`
	TookMS    int64     `json:"took_ms"`
	Orders    int       `json:"orders"`
	Messages  int       `json:"messages"`
	Channels  int       `json:"channels"`
	DryRun    bool      `json:"dry_run,omitempty"`
	Error     string    `json:"error,omitempty"`
	// DetailJSON holds the per-category breakdown.
	DetailJSON string `json:"detail,omitempty"`
}
