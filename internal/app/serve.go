package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"ackscan/internal/config"
	"ackscan/internal/runtime/supervisor"
	"ackscan/internal/task/scheduler"
	logx "ackscan/pkg/logx"
)

// trigger is the part of the scheduler a config reload touches.
type trigger interface {
	Reschedule(raw string) error
	SetRunTimeout(d time.Duration)
}

// Serve connects and runs on the configured schedule until ctx is done.
// Config file changes apply to the next run.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfgm.Get()
	if strings.TrimSpace(cfg.Schedule) == "" {
		return ErrNoSchedule
	}
	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		return err
	}
	if err := a.connect(ctx); err != nil {
		return err
	}

	// A dead reload loop ends serve instead of silently ignoring config edits.
	sup := supervisor.New(ctx,
		supervisor.WithLogger(a.root.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	sched := scheduler.New(schedCfg, func(c context.Context) error {
		_, err := a.runAndRecord(c, triggerSchedule)
		return err
	}, a.root.With(logx.String("comp", "scheduler")))
	if err := sched.Start(sup.Context()); err != nil {
		sup.Cancel()
		return err
	}

	sub := a.cfgm.Subscribe(8)
	sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		return a.reloadLoop(c, sub, sched)
	})
	sup.GoRestart("config.watch", a.cfgm.Watch, supervisor.WithRestartBackoff(time.Second, time.Minute))

	next := sched.Next()
	a.sdNotify(daemon.SdNotifyReady, "STATUS=next run "+next.Format(time.RFC3339))
	a.log.Info("serving", logx.String("schedule", schedCfg.Schedule), logx.Time("next", next), logx.Bool("dry_run", a.opts.DryRun))
	if cfg.RunOnStart {
		sched.RunNow()
	}

	<-sup.Context().Done()
	a.log.Info("shutting down")
	a.sdNotify(daemon.SdNotifyStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	sched.Stop(stopCtx)
	if err := sup.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

var errReloadClosed = errors.New("config subscription closed")

// reloadLoop applies configs from sub until ctx is done.
func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config, sched trigger) error {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return nil
		case newCfg, ok := <-sub:
			if !ok {
				return errReloadClosed
			}
			// Coalesce bursts: keep only the latest config.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					break drain
				}
			}
			if newCfg == nil {
				continue
			}
			a.applyConfig(last, newCfg, sched)
			last = newCfg
		}
	}
}

// applyConfig moves live components to newCfg. Runs in flight keep the
// settings they started with.
func (a *App) applyConfig(oldCfg, newCfg *config.Config, sched trigger) {
	sections, attrs, restart := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}

	if a.logs != nil {
		a.logs.Apply(mapLogConfig(newCfg, a.opts.LogLevel))
	}
	if oldCfg.Discord.SendRatePerSec != newCfg.Discord.SendRatePerSec {
		a.sess.SetSendRate(newCfg.Discord.SendRatePerSec)
	}
	if scanChanged(oldCfg, newCfg) {
		a.setRunner(a.newRunner(newCfg))
	}

	if sched != nil {
		if s := strings.TrimSpace(newCfg.Schedule); s != strings.TrimSpace(oldCfg.Schedule) {
			if s == "" {
				a.log.Warn("empty schedule ignored while serving; keeping previous")
			} else if err := sched.Reschedule(s); err != nil {
				a.log.Warn("invalid schedule; keeping previous", logx.Err(err))
			}
		}
		if strings.TrimSpace(newCfg.RunTimeout) != strings.TrimSpace(oldCfg.RunTimeout) {
			d, _ := config.ParseDurationField("run_timeout", newCfg.RunTimeout)
			sched.SetRunTimeout(d)
		}
	}

	fields := append([]logx.Field{logx.Strs("changed", sections)}, attrs...)
	if restart {
		a.log.Warn("config change requires restart to take full effect", fields...)
		return
	}
	a.log.Info("config reloaded", fields...)
}
