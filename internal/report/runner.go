package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ackscan/internal/config"
	"ackscan/internal/task/permit"
	"ackscan/internal/transport"
	logx "ackscan/pkg/logx"
)

// ErrGuildNotFound is returned when the target guild cannot be resolved.
// No category is scanned in that case.
var ErrGuildNotFound = errors.New("guild not found or bot not in guild")

// Settings is the immutable input of a run.
type Settings struct {
	GuildID     string
	AckRoleID   string
	Window      time.Duration
	Concurrency int
	MaxResults  int
	Categories  []config.Category
}

// SettingsFromConfig snapshots cfg together with the compiled category table.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		GuildID:     cfg.Discord.GuildID,
		AckRoleID:   cfg.Discord.AckRoleID,
		Window:      cfg.Scan.Window(),
		Concurrency: cfg.Scan.Concurrency,
		MaxResults:  cfg.Scan.MaxResults,
		Categories:  config.Categories(),
	}
}

// WindowHours is the window length as shown to users.
func (s Settings) WindowHours() int { return int(s.Window / time.Hour) }

// CategoryReport summarizes one category of a run.
type CategoryReport struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Channels  int      `json:"channels"`
	Orders    int      `json:"orders"`
	Messages  int      `json:"messages"`
	Published []string `json:"published,omitempty"`
	Skipped   []string `json:"skipped,omitempty"`
}

// RunReport summarizes one run.
type RunReport struct {
	RunID      string           `json:"run_id"`
	GuildID    string           `json:"guild_id"`
	Since      time.Time        `json:"since"`
	Started    time.Time        `json:"started"`
	Took       time.Duration    `json:"took"`
	Categories []CategoryReport `json:"categories"`
	Error      string           `json:"error,omitempty"`
}

// Totals sums orders and messages across categories.
func (r RunReport) Totals() (orders, messages int) {
	for _, c := range r.Categories {
		orders += c.Orders
		messages += c.Messages
	}
	return orders, messages
}

// Runner drives one scan-and-publish pass over all categories.
//
// The permit pool lives on the Runner, so it bounds channel scans across
// every run made through it.
type Runner struct {
	settings Settings
	platform transport.Platform
	sender   transport.Sender
	permits  *permit.Pool
	exclude  map[string]struct{}
	log      logx.Logger

	now func() time.Time
}

func NewRunner(settings Settings, platform transport.Platform, sender transport.Sender, log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		settings: settings,
		platform: platform,
		sender:   sender,
		permits:  permit.New(settings.Concurrency),
		exclude:  config.OutputChannelIDs(settings.Categories),
		log:      log,
		now:      time.Now,
	}
}

func (r *Runner) Settings() Settings { return r.settings }

// Run scans every configured category in order and publishes the results.
//
// Only a missing guild (or an unreadable channel list) fails the run; all
// other failures are logged and confined to one channel or destination.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	started := r.now()
	rep := RunReport{
		RunID:   uuid.NewString(),
		GuildID: r.settings.GuildID,
		Started: started,
	}
	log := r.log.With(logx.String("run_id", rep.RunID))
	finish := func(err error) (RunReport, error) {
		rep.Took = r.now().Sub(started)
		if err != nil {
			rep.Error = err.Error()
		}
		return rep, err
	}

	guild, err := r.platform.Guild(ctx, r.settings.GuildID)
	if err != nil {
		log.Error("guild not resolvable; nothing scanned", logx.String("guild_id", r.settings.GuildID), logx.Err(err))
		return finish(fmt.Errorf("%w: %s", ErrGuildNotFound, r.settings.GuildID))
	}
	channels, err := r.platform.TextChannels(ctx, guild.ID)
	if err != nil {
		log.Error("listing guild channels failed", logx.String("guild", guild.Name), logx.Err(err))
		return finish(fmt.Errorf("list channels: %w", err))
	}
	snap := GuildSnapshot{Guild: guild, Channels: channels}

	since := started.UTC().Add(-r.settings.Window)
	rep.Since = since

	ack := NewAcknowledger(r.platform, r.platform, guild.ID, r.settings.AckRoleID, log.With(logx.String("comp", "ack")))
	scanner := NewScanner(r.platform, ack, r.permits, r.exclude, r.settings.MaxResults, log.With(logx.String("comp", "scanner")))
	pub := NewPublisher(r.sender, r.settings.WindowHours())

	log.Info("scan started",
		logx.String("guild", guild.Name),
		logx.Int("categories", len(r.settings.Categories)),
		logx.Time("since", since),
		logx.Int("concurrency", r.permits.Limit()),
	)

	for _, cat := range r.settings.Categories {
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		clog := log.With(logx.String("category", cat.Name), logx.String("category_id", cat.ID))

		orders, messages, nChannels := scanner.ScanCategory(ctx, snap, cat, since)
		clog.Info("category scanned",
			logx.Int("channels", nChannels),
			logx.Int("orders", len(orders)),
			logx.Int("messages", len(messages)),
		)

		cr := CategoryReport{ID: cat.ID, Name: cat.Name, Channels: nChannels, Orders: len(orders), Messages: len(messages)}
		r.publishTo(ctx, clog, pub, &cr, cat.OrdersChannelID, orders, Orders)
		r.publishTo(ctx, clog, pub, &cr, cat.MessagesChannelID, messages, Messages)
		rep.Categories = append(rep.Categories, cr)
	}

	rep, _ = finish(nil)
	o, m := rep.Totals()
	log.Info("scan done", logx.Int("orders", o), logx.Int("messages", m), logx.Duration("took", rep.Took))
	return rep, nil
}

func (r *Runner) publishTo(ctx context.Context, log logx.Logger, pub *Publisher, cr *CategoryReport, channelID string, items []Item, kind Kind) {
	dest, err := r.platform.ResolveChannel(ctx, channelID)
	if err != nil || !dest.Postable {
		log.Warn(kind.Label+" channel not found or not postable; skipping",
			logx.String("channel_id", channelID),
			logx.Err(err),
		)
		cr.Skipped = append(cr.Skipped, kind.Label)
		return
	}
	sent, err := pub.Publish(ctx, dest.ID, items, cr.Name, kind)
	if err != nil {
		log.Warn("publish failed", logx.String("kind", kind.Label), logx.String("channel_id", dest.ID), logx.Int("sent", sent), logx.Err(err))
		cr.Skipped = append(cr.Skipped, kind.Label)
		return
	}
	log.Debug("published", logx.String("kind", kind.Label), logx.String("channel", dest.Name), logx.Int("sent", sent))
	cr.Published = append(cr.Published, kind.Label)
}
