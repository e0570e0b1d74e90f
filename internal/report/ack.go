package report

import (
	"context"

	"ackscan/internal/transport"
	logx "ackscan/pkg/logx"
)

// Acknowledger decides whether a message was endorsed by the ack role.
type Acknowledger struct {
	reactions transport.ReactionReader
	members   transport.MemberDirectory
	guildID   string
	roleID    string
	log       logx.Logger
}

func NewAcknowledger(reactions transport.ReactionReader, members transport.MemberDirectory, guildID, roleID string, log logx.Logger) *Acknowledger {
	return &Acknowledger{reactions: reactions, members: members, guildID: guildID, roleID: roleID, log: log}
}

// IsAcknowledged reports whether at least one account that reacted with
// AckEmoji currently holds the ack role. It stops at the first match.
//
// Role membership is looked up live for every reactor. Lookup failures
// count as "not qualifying" and are never returned to the caller.
func (a *Acknowledger) IsAcknowledged(ctx context.Context, m transport.Message) bool {
	if !m.HasReaction(AckEmoji) {
		return false
	}
	for userID, err := range a.reactions.Reactors(ctx, m.ChannelID, m.ID, AckEmoji) {
		if err != nil {
			a.log.Debug("reactor enumeration failed", logx.String("message_id", m.ID), logx.Err(err))
			return false
		}
		ok, err := a.members.HasRole(ctx, a.guildID, userID, a.roleID)
		if err != nil {
			a.log.Debug("member lookup failed", logx.String("user_id", userID), logx.Err(err))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
