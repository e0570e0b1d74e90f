package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"ackscan/internal/config"
	"ackscan/internal/report"
	"ackscan/internal/storage"
	"ackscan/internal/transport"
	"ackscan/internal/transport/console"
	"ackscan/internal/transport/discord"
	logx "ackscan/pkg/logx"
)

const (
	readyTimeout = 30 * time.Second
	stopTimeout  = 10 * time.Second
	flushTimeout = 5 * time.Second
)

var ErrNoSchedule = errors.New("serve requires a schedule (config \"schedule\" or " + config.EnvSchedule + ")")

// Options are the command-line inputs.
type Options struct {
	ConfigPath string
	DryRun     bool
	// LogLevel overrides logging.level, including across reloads.
	LogLevel string
	// Out receives dry-run output (default os.Stdout).
	Out io.Writer
}

// session is the connected chat platform.
type session interface {
	transport.Platform
	outbound
	Open() error
	WaitReady(ctx context.Context) error
	SetSendRate(perSec int)
	Close() error
}

// outbound is where notices and chat log lines go.
type outbound interface {
	transport.Sender
	logx.Sender
}

type App struct {
	opts Options

	cfgm  *config.ConfigManager
	logs  *logx.Service
	root  logx.Logger
	log   logx.Logger
	store storage.Store

	sess session
	out  outbound

	mu     sync.Mutex
	runner *report.Runner
}

func New(opts Options) (*App, error) {
	if opts.LogLevel != "" && !logx.ValidLevel(opts.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q", opts.LogLevel)
	}
	cfgm := config.NewConfigManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, root := logx.New(mapLogConfig(cfg, opts.LogLevel))
	sess, err := discord.New(mapDiscordConfig(cfg), root.With(logx.String("comp", "discord")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	a, err := build(opts, cfgm, logSvc, root, sess)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func build(opts Options, cfgm *config.ConfigManager, logSvc *logx.Service, root logx.Logger, sess session) (*App, error) {
	if root.IsZero() {
		root = logx.Nop()
	}
	cfg := cfgm.Get()
	cfgm.SetLogger(root.With(logx.String("comp", "config")))

	a := &App{
		opts: opts,
		cfgm: cfgm,
		logs: logSvc,
		root: root,
		log:  root.With(logx.String("comp", "app")),
		sess: sess,
		out:  sess,
	}
	if opts.DryRun {
		w := opts.Out
		if w == nil {
			w = os.Stdout
		}
		a.out = console.New(w, a.channelName)
		a.log.Info("dry run: notices are printed, not posted")
	}
	if logSvc != nil {
		logSvc.SetSender(a.out)
	}

	sc, enabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if enabled {
		st, err := storage.Open(sc, root.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.store = st
		a.log.Info("run audit enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	a.runner = a.newRunner(cfg)
	return a, nil
}

func (a *App) newRunner(cfg *config.Config) *report.Runner {
	return report.NewRunner(report.SettingsFromConfig(cfg), a.sess, a.out, a.root.With(logx.String("comp", "report")))
}

func (a *App) currentRunner() *report.Runner {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runner
}

func (a *App) setRunner(r *report.Runner) {
	a.mu.Lock()
	a.runner = r
	a.mu.Unlock()
}

// connect opens the gateway and waits for READY.
func (a *App) connect(ctx context.Context) error {
	if err := a.sess.Open(); err != nil {
		return err
	}
	rctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := a.sess.WaitReady(rctx); err != nil {
		return fmt.Errorf("waiting for gateway ready: %w", err)
	}
	return nil
}

// RunOnce connects, performs a single run and returns its report.
func (a *App) RunOnce(ctx context.Context) (report.RunReport, error) {
	if err := a.connect(ctx); err != nil {
		return report.RunReport{}, err
	}
	return a.runAndRecord(ctx, triggerOnce)
}

func (a *App) runAndRecord(ctx context.Context, trigger string) (report.RunReport, error) {
	rep, err := a.currentRunner().Run(ctx)
	a.record(rep, trigger)
	a.sdNotify("STATUS=" + statusLine(rep, err))
	return rep, err
}

// channelName labels dry-run output.
func (a *App) channelName(channelID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := a.sess.ResolveChannel(ctx, channelID)
	if err != nil {
		return ""
	}
	return ch.Name
}

// Close flushes pending chat log lines, then releases the session, the
// audit store and log sinks, in that order.
func (a *App) Close() error {
	var errs []error
	if a.logs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := a.logs.Flush(ctx); err != nil {
			a.log.Warn("chat log lines dropped on close", logx.Err(err))
		}
		cancel()
	}
	if a.sess != nil {
		if err := a.sess.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}
