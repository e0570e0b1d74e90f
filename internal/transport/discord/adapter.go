package discord

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"ackscan/internal/transport"
	logx "ackscan/pkg/logx"
)

const (
	historyPageSize  = 100
	reactorsPageSize = 100
)

type Config struct {
	Token string
	// GuildID fills in permalinks when the API omits guild_id on messages.
	GuildID        string
	SendRatePerSec int
}

// Adapter implements transport.Platform and transport.Sender on a discordgo session.
type Adapter struct {
	cfg Config
	log logx.Logger

	s       *discordgo.Session
	limiter *rate.Limiter

	readyOnce sync.Once
	ready     chan struct{}
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + strings.TrimSpace(cfg.Token))
	if err != nil {
		return nil, err
	}
	// Members intent is required for role lookups; message content for markers.
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	if log.IsZero() {
		log = logx.Nop()
	}

	lim := rate.NewLimiter(sendLimit(cfg.SendRatePerSec), 1)
	return &Adapter{cfg: cfg, log: log, s: s, limiter: lim, ready: make(chan struct{})}, nil
}

// SetSendRate changes send pacing; 0 disables it.
func (a *Adapter) SetSendRate(perSec int) {
	a.limiter.SetLimit(sendLimit(perSec))
}

func sendLimit(perSec int) rate.Limit {
	if perSec <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSec)
}

// Open connects the gateway. WaitReady returns after the first READY event.
func (a *Adapter) Open() error {
	a.s.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		if r != nil && r.User != nil {
			a.log.Info("logged in", logx.String("user", r.User.Username), logx.Int("guilds", len(r.Guilds)))
		}
		a.readyOnce.Do(func() { close(a.ready) })
	})
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// WaitReady blocks until READY or ctx is done.
func (a *Adapter) WaitReady(ctx context.Context) error {
	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) Close() error {
	a.log.Info("closing connection")
	return a.s.Close()
}

// ---- transport.GuildDirectory ----

func (a *Adapter) Guild(ctx context.Context, guildID string) (transport.Guild, error) {
	if g, err := a.s.State.Guild(guildID); err == nil && g != nil {
		return transport.Guild{ID: g.ID, Name: g.Name}, nil
	}
	g, err := a.s.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return transport.Guild{}, mapErr(err)
	}
	return transport.Guild{ID: g.ID, Name: g.Name}, nil
}

func (a *Adapter) TextChannels(ctx context.Context, guildID string) ([]transport.Channel, error) {
	chans, err := a.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]transport.Channel, 0, len(chans))
	for _, ch := range chans {
		if ch == nil || !isTextChannel(ch.Type) {
			continue
		}
		out = append(out, toChannel(ch))
	}
	return out, nil
}

func (a *Adapter) ResolveChannel(ctx context.Context, channelID string) (transport.Channel, error) {
	if ch, err := a.s.State.Channel(channelID); err == nil && ch != nil {
		return toChannel(ch), nil
	}
	ch, err := a.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return transport.Channel{}, mapErr(err)
	}
	return toChannel(ch), nil
}

// ---- transport.HistoryReader ----

// History pages backwards from the newest message with "before" and stops
// at the first message not newer than since.
func (a *Adapter) History(ctx context.Context, channelID string, since time.Time) iter.Seq2[transport.Message, error] {
	return func(yield func(transport.Message, error) bool) {
		before := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(transport.Message{}, err)
				return
			}
			page, err := a.s.ChannelMessages(channelID, historyPageSize, before, "", "", discordgo.WithContext(ctx))
			if err != nil {
				yield(transport.Message{}, mapErr(err))
				return
			}
			for _, m := range page {
				if m == nil {
					continue
				}
				if !m.Timestamp.After(since) {
					return
				}
				if !yield(a.toMessage(m), nil) {
					return
				}
			}
			if len(page) < historyPageSize {
				return
			}
			before = page[len(page)-1].ID
		}
	}
}

// ---- transport.ReactionReader ----

func (a *Adapter) Reactors(ctx context.Context, channelID, messageID, emoji string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		after := ""
		for {
			users, err := a.s.MessageReactions(channelID, messageID, emoji, reactorsPageSize, "", after, discordgo.WithContext(ctx))
			if err != nil {
				yield("", mapErr(err))
				return
			}
			for _, u := range users {
				if u == nil {
					continue
				}
				if !yield(u.ID, nil) {
					return
				}
			}
			if len(users) < reactorsPageSize {
				return
			}
			after = users[len(users)-1].ID
		}
	}
}

// ---- transport.MemberDirectory ----

// HasRole fetches the member over REST on every call, so a role removed
// after reacting is seen immediately.
func (a *Adapter) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	m, err := a.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, mapErr(err)
	}
	return memberHasRole(m, roleID), nil
}

// ---- transport.Sender ----

func (a *Adapter) SendNotice(ctx context.Context, channelID string, n transport.Notice) error {
	emb := &discordgo.MessageEmbed{Title: n.Title, Description: n.Description}
	if n.Footer != "" {
		emb.Footer = &discordgo.MessageEmbedFooter{Text: n.Footer}
	}
	return a.send(ctx, channelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{emb}})
}

func (a *Adapter) SendLinks(ctx context.Context, channelID string, links []transport.Link) error {
	if len(links) == 0 {
		return nil
	}
	return a.send(ctx, channelID, &discordgo.MessageSend{Components: linkRows(links)})
}

// SendText implements logx.Sender.
func (a *Adapter) SendText(ctx context.Context, channelID, text string) error {
	return a.send(ctx, channelID, &discordgo.MessageSend{Content: text})
}

func (a *Adapter) send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := a.s.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return mapErr(err)
	}
	return nil
}

// ---- conversions ----

const buttonsPerRow = 5

// linkRows lays links out as action rows of five link buttons.
func linkRows(links []transport.Link) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, (len(links)+buttonsPerRow-1)/buttonsPerRow)
	for start := 0; start < len(links); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(links))
		row := discordgo.ActionsRow{Components: make([]discordgo.MessageComponent, 0, end-start)}
		for _, l := range links[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label: l.Label,
				Style: discordgo.LinkButton,
				URL:   l.URL,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func (a *Adapter) toMessage(m *discordgo.Message) transport.Message {
	guildID := m.GuildID
	if guildID == "" {
		guildID = a.cfg.GuildID
	}
	out := transport.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   guildID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
		Permalink: Permalink(guildID, m.ChannelID, m.ID),
	}
	for _, r := range m.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		out.Reactions = append(out.Reactions, transport.Reaction{Emoji: emojiKey(r.Emoji), Count: r.Count})
	}
	return out
}

// emojiKey is the unicode glyph for standard emoji and name:id for custom ones.
func emojiKey(e *discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	return e.APIName()
}

// Permalink builds the jump URL for a message.
func Permalink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

func toChannel(ch *discordgo.Channel) transport.Channel {
	return transport.Channel{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		ParentID: ch.ParentID,
		Name:     ch.Name,
		Postable: isPostable(ch.Type),
	}
}

func isTextChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

func isPostable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return true
	}
	return false
}

func memberHasRole(m *discordgo.Member, roleID string) bool {
	if m == nil {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// mapErr translates REST status codes into transport sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", transport.ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", transport.ErrNotFound, err)
		}
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return fmt.Errorf("%w: %v", transport.ErrNotFound, err)
	}
	return err
}
