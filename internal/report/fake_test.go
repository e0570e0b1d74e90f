package report

import (
	"context"
	"iter"
	"sync"
	"time"

	"ackscan/internal/transport"
)

// fakePlatform is an in-memory transport.Platform.
type fakePlatform struct {
	mu sync.Mutex

	guild    *transport.Guild
	channels []transport.Channel
	// history per channel, newest first
	history    map[string][]transport.Message
	historyErr map[string]error
	// reactors keyed by message ID (only AckEmoji is modeled)
	reactors   map[string][]string
	reactorErr map[string]error
	roleHolder map[string]bool
	memberErr  map[string]error
	// destinations that ResolveChannel knows about
	destinations map[string]transport.Channel

	historyCalls  map[string]int
	yielded       map[string]int
	reactorCalls  int
	memberLookups int

	delay    time.Duration
	inflight int
	peak     int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		guild:        &transport.Guild{ID: "g1", Name: "Test Guild"},
		history:      map[string][]transport.Message{},
		historyErr:   map[string]error{},
		reactors:     map[string][]string{},
		reactorErr:   map[string]error{},
		roleHolder:   map[string]bool{},
		memberErr:    map[string]error{},
		destinations: map[string]transport.Channel{},
		historyCalls: map[string]int{},
		yielded:      map[string]int{},
	}
}

func (f *fakePlatform) addChannel(id, parent, name string, msgs ...transport.Message) {
	f.channels = append(f.channels, transport.Channel{ID: id, GuildID: "g1", ParentID: parent, Name: name, Postable: true})
	for i := range msgs {
		msgs[i].ChannelID = id
		msgs[i].GuildID = "g1"
		if msgs[i].Permalink == "" {
			msgs[i].Permalink = "https://discord.com/channels/g1/" + id + "/" + msgs[i].ID
		}
	}
	f.history[id] = msgs
}

func (f *fakePlatform) addDestination(id, name string) {
	f.destinations[id] = transport.Channel{ID: id, GuildID: "g1", Name: name, Postable: true}
}

func (f *fakePlatform) Guild(_ context.Context, guildID string) (transport.Guild, error) {
	if f.guild == nil || f.guild.ID != guildID {
		return transport.Guild{}, transport.ErrNotFound
	}
	return *f.guild, nil
}

func (f *fakePlatform) TextChannels(context.Context, string) ([]transport.Channel, error) {
	return append([]transport.Channel(nil), f.channels...), nil
}

func (f *fakePlatform) ResolveChannel(_ context.Context, channelID string) (transport.Channel, error) {
	ch, ok := f.destinations[channelID]
	if !ok {
		return transport.Channel{}, transport.ErrNotFound
	}
	return ch, nil
}

func (f *fakePlatform) History(_ context.Context, channelID string, since time.Time) iter.Seq2[transport.Message, error] {
	return func(yield func(transport.Message, error) bool) {
		f.mu.Lock()
		f.historyCalls[channelID]++
		f.inflight++
		f.peak = max(f.peak, f.inflight)
		msgs := f.history[channelID]
		herr := f.historyErr[channelID]
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			f.inflight--
			f.mu.Unlock()
		}()

		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		for _, m := range msgs {
			if !m.CreatedAt.After(since) {
				return
			}
			f.mu.Lock()
			f.yielded[channelID]++
			f.mu.Unlock()
			if !yield(m, nil) {
				return
			}
		}
		if herr != nil {
			yield(transport.Message{}, herr)
		}
	}
}

func (f *fakePlatform) Reactors(_ context.Context, _ string, messageID, emoji string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.mu.Lock()
		f.reactorCalls++
		users := f.reactors[messageID]
		rerr := f.reactorErr[messageID]
		f.mu.Unlock()
		if emoji != AckEmoji {
			return
		}
		if rerr != nil {
			yield("", rerr)
			return
		}
		for _, u := range users {
			if !yield(u, nil) {
				return
			}
		}
	}
}

func (f *fakePlatform) HasRole(_ context.Context, _ string, userID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberLookups++
	if err := f.memberErr[userID]; err != nil {
		return false, err
	}
	return f.roleHolder[userID], nil
}

type sentMessage struct {
	channelID string
	notice    *transport.Notice
	links     []transport.Link
}

// fakeSender records every send.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) SendNotice(_ context.Context, channelID string, n transport.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{channelID: channelID, notice: &n})
	return nil
}

func (s *fakeSender) SendLinks(_ context.Context, channelID string, links []transport.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{channelID: channelID, links: append([]transport.Link(nil), links...)})
	return nil
}

func (s *fakeSender) to(channelID string) []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentMessage
	for _, m := range s.sent {
		if m.channelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

// msgAt builds a message created ago before base.
func msgAt(id, content string, base time.Time, ago time.Duration, reactions ...transport.Reaction) transport.Message {
	return transport.Message{ID: id, Content: content, CreatedAt: base.Add(-ago), Reactions: reactions}
}

func ackReaction(n int) transport.Reaction { return transport.Reaction{Emoji: AckEmoji, Count: n} }
