package report

import "strings"

const (
	// OrderMarker tags a message as an order.
	OrderMarker = "📜"
	// MessageMarker tags a message as a message for another party.
	MessageMarker = "✉️"
	// AckEmoji is the reaction an acknowledging role member leaves.
	AckEmoji = "✅"
)

// Kind is one of the two result sets a category produces.
type Kind struct {
	Glyph string
	Label string
}

var (
	Orders   = Kind{Glyph: OrderMarker, Label: "Orders"}
	Messages = Kind{Glyph: MessageMarker, Label: "Messages"}
)

// Classify reports which markers text contains. Matching is a
// case-sensitive substring test.
func Classify(text string) (order, message bool) {
	if text == "" {
		return false, false
	}
	return strings.Contains(text, OrderMarker), strings.Contains(text, MessageMarker)
}
