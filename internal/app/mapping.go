package app

import (
	"fmt"
	"strings"
	"time"

	"ackscan/internal/config"
	"ackscan/internal/storage"
	"ackscan/internal/task/scheduler"
	"ackscan/internal/transport/discord"
	logx "ackscan/pkg/logx"
)

func mapLogConfig(cfg *config.Config, levelOverride string) logx.Config {
	level := cfg.Logging.Level
	if strings.TrimSpace(levelOverride) != "" {
		level = levelOverride
	}
	return logx.Config{
		Level:   level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:    cfg.Logging.Chat.Enabled,
			ChannelID:  cfg.Logging.Chat.ChannelID,
			MinLevel:   cfg.Logging.Chat.MinLevel,
			RatePerSec: cfg.Logging.Chat.RatePerSec,
		},
	}
}

func mapDiscordConfig(cfg *config.Config) discord.Config {
	return discord.Config{
		Token:          cfg.Discord.Token,
		GuildID:        cfg.Discord.GuildID,
		SendRatePerSec: cfg.Discord.SendRatePerSec,
	}
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	timeout, err := config.ParseDurationField("run_timeout", cfg.RunTimeout)
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{
		Schedule:   strings.TrimSpace(cfg.Schedule),
		Timezone:   strings.TrimSpace(cfg.Timezone),
		RunTimeout: timeout,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		if path == "" {
			path = "./ackscan.db"
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

// scanChanged reports whether a reload changes what a run does.
func scanChanged(oldCfg, newCfg *config.Config) bool {
	return oldCfg.Scan != newCfg.Scan ||
		strings.TrimSpace(oldCfg.Discord.AckRoleID) != strings.TrimSpace(newCfg.Discord.AckRoleID)
}
