package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "ackscan/pkg/logx"
)

// Job is the scheduled work. It receives the service context (bounded by
// Config.RunTimeout when set).
type Job func(ctx context.Context) error

type Config struct {
	Schedule   string
	Timezone   string        // IANA TZ, e.g. "Europe/Berlin"; empty = local
	RunTimeout time.Duration // 0 = no limit
}

// Service triggers one Job on a cron or interval schedule. Overlapping
// triggers are skipped while a run is in flight.
type Service struct {
	mu sync.Mutex

	cfg    Config
	log    logx.Logger
	parser cron.Parser
	c      *cron.Cron
	entry  cron.EntryID
	spec   ParsedSpec

	job     cron.Job // wrapped once so skip-if-running spans reschedules
	baseCtx context.Context
	runs    atomic.Uint64
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg: cfg,
		log: log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser:  cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		baseCtx: context.Background(),
	}
	cl := cronLogger{log: log}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() { s.run(job) }))
	return s
}

// Start validates the schedule and begins triggering. Runs stop being
// triggered once ctx is done; in-flight runs see ctx cancellation.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	loc, err := loadLocation(s.cfg.Timezone)
	if err != nil {
		return err
	}
	spec, sched, err := s.parse(s.cfg.Schedule)
	if err != nil {
		return err
	}
	s.baseCtx = ctx
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc), cron.WithLogger(cronLogger{log: s.log}))
	s.entry = s.c.Schedule(sched, s.job)
	s.spec = spec
	s.c.Start()
	s.log.Info("service started", logx.String("schedule", spec.String()), logx.String("tz", loc.String()), logx.Time("next", s.c.Entry(s.entry).Next))
	return nil
}

// Reschedule swaps the trigger in place. A run in flight is not interrupted.
func (s *Service) Reschedule(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, sched, err := s.parse(raw)
	if err != nil {
		return err
	}
	s.cfg.Schedule = raw
	if s.c == nil {
		return nil
	}
	s.c.Remove(s.entry)
	s.entry = s.c.Schedule(sched, s.job)
	s.spec = spec
	s.log.Info("rescheduled", logx.String("schedule", spec.String()), logx.Time("next", s.c.Entry(s.entry).Next))
	return nil
}

// SetRunTimeout applies to runs started afterwards.
func (s *Service) SetRunTimeout(d time.Duration) {
	s.mu.Lock()
	s.cfg.RunTimeout = d
	s.mu.Unlock()
}

// RunNow triggers the job outside the schedule, subject to the same overlap rule.
func (s *Service) RunNow() {
	go s.job.Run()
}

// Next returns the next trigger time (zero if not started).
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	return s.c.Entry(s.entry).Next
}

// Runs reports how many runs have started.
func (s *Service) Runs() uint64 { return s.runs.Load() }

// Stop stops triggering and waits for a run in flight, bounded by ctx.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("stop timed out waiting for run")
	}
	s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
}

func (s *Service) parse(raw string) (ParsedSpec, cron.Schedule, error) {
	spec, err := ParseSchedule(raw)
	if err != nil {
		return ParsedSpec{}, nil, err
	}
	sched, err := s.parser.Parse(spec.Expr())
	if err != nil {
		return ParsedSpec{}, nil, fmt.Errorf("schedule %q: %w", strings.TrimSpace(raw), err)
	}
	return spec, sched, nil
}

func (s *Service) run(job Job) {
	s.mu.Lock()
	ctx := s.baseCtx
	timeout := s.cfg.RunTimeout
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	n := s.runs.Add(1)
	log := s.log.With(logx.Int64("run", int64(n)))
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	err := job(ctx)
	switch {
	case err == nil:
		log.Debug("run finished", logx.Duration("took", time.Since(start)))
	case errors.Is(err, context.Canceled):
		log.Info("run canceled", logx.Duration("took", time.Since(start)))
	default:
		log.Error("run failed", logx.Err(err), logx.Duration("took", time.Since(start)))
	}
}

func loadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", tz, err)
	}
	return loc, nil
}

// cronLogger routes robfig/cron's logr-style calls into logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug(msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error(msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
