package report

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"ackscan/internal/config"
	"ackscan/internal/task/permit"
	"ackscan/internal/transport"
	logx "ackscan/pkg/logx"
)

// GuildSnapshot is the resolved guild plus its text channels, fetched once per run.
type GuildSnapshot struct {
	transport.Guild
	Channels []transport.Channel
}

// Scanner walks channel history and collects unacknowledged marked messages.
type Scanner struct {
	history transport.HistoryReader
	ack     *Acknowledger
	permits *permit.Pool
	exclude map[string]struct{}
	max     int
	log     logx.Logger
}

func NewScanner(history transport.HistoryReader, ack *Acknowledger, permits *permit.Pool, exclude map[string]struct{}, maxResults int, log logx.Logger) *Scanner {
	if maxResults <= 0 {
		maxResults = config.DefaultMaxResults
	}
	return &Scanner{
		history: history,
		ack:     ack,
		permits: permits,
		exclude: exclude,
		max:     maxResults,
		log:     log,
	}
}

// ScanChannel walks ch newest-first over messages newer than since.
//
// It stops once the combined size of both lists reaches the cap, or when the
// next message would overflow it. A read failure ends the walk; whatever was
// collected so far is returned.
func (s *Scanner) ScanChannel(ctx context.Context, ch transport.Channel, since time.Time) (orders, messages []Item) {
	if err := s.permits.Acquire(ctx); err != nil {
		return nil, nil
	}
	defer s.permits.Release()

	log := s.log.With(logx.String("channel", ch.Name), logx.String("channel_id", ch.ID))
	for m, err := range s.history.History(ctx, ch.ID, since) {
		if err != nil {
			if errors.Is(err, transport.ErrForbidden) {
				log.Debug("channel not readable; skipping")
			} else if ctx.Err() == nil {
				log.Warn("channel scan failed; keeping partial results", logx.Err(err), logx.Int("collected", len(orders)+len(messages)))
			}
			break
		}

		isOrder, isMessage := Classify(m.Content)
		if !isOrder && !isMessage {
			continue
		}
		if s.ack.IsAcknowledged(ctx, m) {
			log.Trace("acknowledged; skipping", logx.String("message_id", m.ID))
			continue
		}

		// A message with both markers takes two slots; it is never split.
		need := 0
		if isOrder {
			need++
		}
		if isMessage {
			need++
		}
		if len(orders)+len(messages)+need > s.max {
			log.Debug("channel cap reached", logx.Int("cap", s.max))
			break
		}

		it := newItem(ch, m)
		if isOrder {
			orders = append(orders, it)
		}
		if isMessage {
			messages = append(messages, it)
		}
		if len(orders)+len(messages) >= s.max {
			log.Debug("channel cap reached", logx.Int("cap", s.max))
			break
		}
	}
	return orders, messages
}

// EligibleChannels returns the channels filed under categoryID that are
// not output channels.
func (s *Scanner) EligibleChannels(channels []transport.Channel, categoryID string) []transport.Channel {
	out := make([]transport.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.ParentID != categoryID {
			continue
		}
		if _, skip := s.exclude[ch.ID]; skip {
			continue
		}
		out = append(out, ch)
	}
	return out
}

type channelResult struct {
	orders   []Item
	messages []Item
}

// ScanCategory scans every eligible channel of cat concurrently and merges
// the results in completion order. Each merged list is then cut to the cap.
func (s *Scanner) ScanCategory(ctx context.Context, g GuildSnapshot, cat config.Category, since time.Time) (orders, messages []Item, channels int) {
	chans := s.EligibleChannels(g.Channels, cat.ID)
	if len(chans) == 0 {
		return nil, nil, 0
	}

	// Buffered to len(chans): finished scans never block, and the receive
	// order below is the completion order.
	done := make(chan channelResult, len(chans))
	var eg errgroup.Group
	for _, ch := range chans {
		eg.Go(func() error {
			o, m := s.ScanChannel(ctx, ch, since)
			done <- channelResult{orders: o, messages: m}
			return nil
		})
	}
	_ = eg.Wait()
	close(done)

	for res := range done {
		orders = append(orders, res.orders...)
		messages = append(messages, res.messages...)
	}
	if len(orders) > s.max {
		orders = orders[:s.max]
	}
	if len(messages) > s.max {
		messages = messages[:s.max]
	}
	return orders, messages, len(chans)
}
