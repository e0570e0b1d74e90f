package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	logx "ackscan/pkg/logx"
)

var ErrMissingToken = errors.New("discord.token is required (or set " + EnvToken + ")")

// Validate checks a fully merged config (file + env + defaults).
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		return ErrMissingToken
	}
	if err := snowflakeField("discord.guild_id", cfg.Discord.GuildID, true); err != nil {
		return err
	}
	if err := snowflakeField("discord.ack_role_id", cfg.Discord.AckRoleID, true); err != nil {
		return err
	}
	if cfg.Discord.SendRatePerSec < 0 {
		return fmt.Errorf("discord.send_rate_per_sec must be >= 0")
	}
	if cfg.Scan.WindowHours <= 0 {
		return fmt.Errorf("scan.window_hours must be > 0")
	}
	if cfg.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be > 0")
	}
	if cfg.Scan.MaxResults <= 0 {
		return fmt.Errorf("scan.max_results must be > 0")
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: invalid %q", cfg.Logging.Level)
	}
	if cfg.Logging.Chat.Enabled {
		if err := snowflakeField("logging.chat.channel_id", cfg.Logging.Chat.ChannelID, true); err != nil {
			return err
		}
	}
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	if _, err := ParseDurationField("run_timeout", cfg.RunTimeout); err != nil {
		return err
	}
	if cfg.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

func snowflakeField(path, v string, required bool) error {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			return fmt.Errorf("%s is required", path)
		}
		return nil
	}
	if _, err := strconv.ParseUint(v, 10, 64); err != nil {
		return fmt.Errorf("%s: invalid id %q", path, v)
	}
	return nil
}
