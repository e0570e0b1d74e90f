package transport

import (
	"context"
	"errors"
	"iter"
	"time"
)

var (
	ErrNotFound  = errors.New("transport: not found")
	ErrForbidden = errors.New("transport: forbidden")
)

// Guild is a resolved group (Discord guild).
type Guild struct {
	ID   string
	Name string
}

// Channel is a text channel inside a guild.
// ParentID is the category the channel is filed under ("" if none).
type Channel struct {
	ID       string
	GuildID  string
	ParentID string
	Name     string
	// Postable reports whether messages can be sent to the channel.
	Postable bool
}

// Reaction is an aggregate reaction on a message (one entry per emoji).
type Reaction struct {
	Emoji string
	Count int
}

type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	Content   string
	CreatedAt time.Time
	Reactions []Reaction
	// Permalink jumps to the message in the client.
	Permalink string
}

// HasReaction reports whether the message carries at least one emoji reaction.
func (m Message) HasReaction(emoji string) bool {
	for _, r := range m.Reactions {
		if r.Emoji == emoji && r.Count > 0 {
			return true
		}
	}
	return false
}

// Notice is a summary block (Discord: embed).
type Notice struct {
	Title       string
	Description string
	Footer      string
}

// Link is a clickable control that opens a URL (Discord: link button).
type Link struct {
	Label string
	URL   string
}

// GuildDirectory resolves the guild and its structure.
type GuildDirectory interface {
	Guild(ctx context.Context, guildID string) (Guild, error)
	TextChannels(ctx context.Context, guildID string) ([]Channel, error)
	ResolveChannel(ctx context.Context, channelID string) (Channel, error)
}

// HistoryReader walks channel history.
//
// History yields messages strictly newer than since, newest first. Pages are
// fetched lazily; breaking out of the range loop stops further requests.
// A non-nil error is yielded once and ends the sequence.
type HistoryReader interface {
	History(ctx context.Context, channelID string, since time.Time) iter.Seq2[Message, error]
}

// ReactionReader enumerates accounts that reacted with one emoji.
// Like History, pagination is lazy and stops when the consumer breaks.
type ReactionReader interface {
	Reactors(ctx context.Context, channelID, messageID, emoji string) iter.Seq2[string, error]
}

// MemberDirectory answers live role-membership questions.
type MemberDirectory interface {
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
}

// Sender posts rendered output into a channel.
type Sender interface {
	SendNotice(ctx context.Context, channelID string, n Notice) error
	SendLinks(ctx context.Context, channelID string, links []Link) error
}

// Platform is everything the scan pipeline needs from the chat platform.
type Platform interface {
	GuildDirectory
	HistoryReader
	ReactionReader
	MemberDirectory
}
