package config

import (
	"sort"
	"strings"

	logx "ackscan/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections,
// (2) safe structured attrs for logging (never includes the token), and
// (3) whether the change needs a process restart to take effect.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field, bool) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)
	restart := false

	// The session is opened once; token and guild are bound to it.
	if strings.TrimSpace(oldCfg.Discord.Token) != strings.TrimSpace(newCfg.Discord.Token) ||
		strings.TrimSpace(oldCfg.Discord.GuildID) != strings.TrimSpace(newCfg.Discord.GuildID) {
		restart = true
	}
	if oldCfg.Discord != newCfg.Discord {
		changed = append(changed, "discord")
		attrs = append(attrs,
			logx.String("discord.guild_id", newCfg.Discord.GuildID),
			logx.String("discord.ack_role_id", newCfg.Discord.AckRoleID),
			logx.Int("discord.send_rate_per_sec", newCfg.Discord.SendRatePerSec),
			logx.Bool("discord.token_changed", strings.TrimSpace(oldCfg.Discord.Token) != strings.TrimSpace(newCfg.Discord.Token)),
		)
	}

	if oldCfg.Scan != newCfg.Scan {
		changed = append(changed, "scan")
		attrs = append(attrs,
			logx.Int("scan.window_hours", newCfg.Scan.WindowHours),
			logx.Int("scan.concurrency", newCfg.Scan.Concurrency),
			logx.Int("scan.max_results", newCfg.Scan.MaxResults),
		)
	}

	if strings.TrimSpace(oldCfg.Schedule) != strings.TrimSpace(newCfg.Schedule) ||
		strings.TrimSpace(oldCfg.RunTimeout) != strings.TrimSpace(newCfg.RunTimeout) {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.String("schedule", strings.TrimSpace(newCfg.Schedule)),
			logx.String("run_timeout", strings.TrimSpace(newCfg.RunTimeout)),
		)
	}
	// The cron location is fixed when the scheduler starts.
	if strings.TrimSpace(oldCfg.Timezone) != strings.TrimSpace(newCfg.Timezone) {
		changed = append(changed, "timezone")
		restart = true
		attrs = append(attrs, logx.String("timezone", strings.TrimSpace(newCfg.Timezone)))
	}

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.ConsoleEnabled() != newCfg.Logging.ConsoleEnabled() ||
		oldCfg.Logging.File != newCfg.Logging.File ||
		oldCfg.Logging.Chat != newCfg.Logging.Chat {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.chat_enabled", newCfg.Logging.Chat.Enabled),
		)
	}

	var oS, nS StorageConfig
	if oldCfg.Storage != nil {
		oS = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		nS = *newCfg.Storage
	}
	if oS != nS {
		changed = append(changed, "storage")
		restart = true
		attrs = append(attrs, logx.String("storage.driver", strings.TrimSpace(nS.Driver)))
	}

	sort.Strings(changed)
	return changed, attrs, restart
}
