package config

// Config is the on-disk (JSON or YAML) configuration, after environment overrides.
//
// Defaults (when fields are omitted/zero):
//   - scan.window_hours: 168
//   - scan.concurrency: 10
//   - scan.max_results: 500
//   - discord.send_rate_per_sec: 5
//   - discord.ack_role_id: DefaultAckRoleID
//   - logging.level: INFO, logging.console: true
type Config struct {
	Discord DiscordConfig `json:"discord"`
	Scan    ScanConfig    `json:"scan"`

	// Schedule is a cron expression or interval (see scheduler.ParseSchedule).
	// Empty means run once and exit.
	Schedule string `json:"schedule,omitempty"`
	// Timezone for cron schedules (IANA name). Empty = local.
	Timezone string `json:"timezone,omitempty"`
	// RunTimeout bounds a single scheduled run (Go duration). Empty = no limit.
	RunTimeout string `json:"run_timeout,omitempty"`
	// RunOnStart triggers one run as soon as serve mode is ready.
	RunOnStart bool `json:"run_on_start,omitempty"`

	Logging LoggingConfig  `json:"logging"`
	Storage *StorageConfig `json:"storage,omitempty"`
}

type DiscordConfig struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`
	// AckRoleID is the role whose ✅ reaction marks a message handled.
	AckRoleID string `json:"ack_role_id,omitempty"`
	// SendRatePerSec paces outgoing messages on top of discordgo's own bucket handling.
	SendRatePerSec int `json:"send_rate_per_sec,omitempty"`
}

type ScanConfig struct {
	WindowHours int `json:"window_hours,omitempty"`
	Concurrency int `json:"concurrency,omitempty"`
	MaxResults  int `json:"max_results,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingChat forwards WARN+ log lines into a Discord channel.
type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	ChannelID  string `json:"channel_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the optional run audit.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./ackscan.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

const (
	DefaultWindowHours    = 168
	DefaultConcurrency    = 10
	DefaultMaxResults     = 500
	DefaultSendRatePerSec = 5
)

// ConsoleEnabled reports the effective console flag (default true).
func (l LoggingConfig) ConsoleEnabled() bool {
	if l.Console == nil {
		return true
	}
	return *l.Console
}
