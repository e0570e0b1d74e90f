package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"ackscan/internal/config"
	"ackscan/internal/report"
	"ackscan/internal/storage"
	logx "ackscan/pkg/logx"
)

const (
	triggerOnce     = "once"
	triggerSchedule = "schedule"

	auditTimeout = 5 * time.Second
)

func runEntry(rep report.RunReport, trigger string, dryRun bool) storage.RunEntry {
	o, m := rep.Totals()
	channels := 0
	for _, c := range rep.Categories {
		channels += c.Channels
	}
	e := storage.RunEntry{
		RunID:     rep.RunID,
		GuildID:   rep.GuildID,
		Trigger:   trigger,
		StartedAt: rep.Started,
		Since:     rep.Since,
		TookMS:    rep.Took.Milliseconds(),
		Orders:    o,
		Messages:  m,
		Channels:  channels,
		DryRun:    dryRun,
		Error:     rep.Error,
	}
	if len(rep.Categories) > 0 {
		if b, err := json.Marshal(rep.Categories); err == nil {
			e.DetailJSON = string(b)
		}
	}
	return e
}

// record appends the run to the audit store. Failures only warn.
func (a *App) record(rep report.RunReport, trigger string) {
	if a.store == nil || rep.RunID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	if err := a.store.AppendRun(ctx, runEntry(rep, trigger, a.opts.DryRun)); err != nil {
		a.log.Warn("run audit append failed", logx.String("run_id", rep.RunID), logx.Err(err))
	}
}

// statusLine is the systemd STATUS= text for a finished run.
func statusLine(rep report.RunReport, err error) string {
	if err != nil {
		return fmt.Sprintf("last run %s failed: %v", rep.Started.Format(time.RFC3339), err)
	}
	o, m := rep.Totals()
	return fmt.Sprintf("last run %s: %d orders, %d messages in %s",
		rep.Started.Format(time.RFC3339), o, m, rep.Took.Round(time.Millisecond))
}

// sdNotify is a no-op outside systemd (NOTIFY_SOCKET unset).
func (a *App) sdNotify(states ...string) {
	for _, st := range states {
		if _, err := daemon.SdNotify(false, st); err != nil {
			a.log.Debug("sd_notify failed", logx.String("state", st), logx.Err(err))
		}
	}
}

var ErrAuditDisabled = errors.New("run audit is disabled (set storage.driver to file or sqlite)")

// RecentRuns reads the audit store without connecting to Discord.
func RecentRuns(ctx context.Context, configPath string, n int) ([]storage.RunEntry, error) {
	cfg, err := config.NewConfigManager(configPath).Parse()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrAuditDisabled
	}
	st, err := storage.Open(sc, logx.Nop())
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()
	return st.RecentRuns(ctx, n)
}
