package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables that override file values.
const (
	EnvToken       = "DISCORD_TOKEN"
	EnvGuildID     = "DISCORD_GUILD_ID"
	EnvWindowHours = "WINDOW_HOURS"
	EnvConcurrency = "CONCURRENCY"
	EnvMaxResults  = "MAX_RESULTS"
	EnvSchedule    = "ACKSCAN_SCHEDULE"
	EnvLogLevel    = "LOG_LEVEL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// applyEnv overlays environment values onto cfg. Empty values are ignored.
func applyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	get := func(k string) (string, bool) {
		v, ok := lookup(k)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	getInt := func(k string, dst *int) error {
		v, ok := get(k)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", k, v)
		}
		*dst = n
		return nil
	}

	if v, ok := get(EnvToken); ok {
		cfg.Discord.Token = v
	}
	if v, ok := get(EnvGuildID); ok {
		cfg.Discord.GuildID = v
	}
	if v, ok := get(EnvSchedule); ok {
		cfg.Schedule = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.Logging.Level = v
	}
	if err := getInt(EnvWindowHours, &cfg.Scan.WindowHours); err != nil {
		return err
	}
	if err := getInt(EnvConcurrency, &cfg.Scan.Concurrency); err != nil {
		return err
	}
	return getInt(EnvMaxResults, &cfg.Scan.MaxResults)
}

// applyDefaults fills zero values. Negative values are left for Validate to reject.
func applyDefaults(cfg *Config) {
	if cfg.Scan.WindowHours == 0 {
		cfg.Scan.WindowHours = DefaultWindowHours
	}
	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = DefaultConcurrency
	}
	if cfg.Scan.MaxResults == 0 {
		cfg.Scan.MaxResults = DefaultMaxResults
	}
	if cfg.Discord.SendRatePerSec == 0 {
		cfg.Discord.SendRatePerSec = DefaultSendRatePerSec
	}
	if strings.TrimSpace(cfg.Discord.AckRoleID) == "" {
		cfg.Discord.AckRoleID = DefaultAckRoleID
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "INFO"
	}
}
