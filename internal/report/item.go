package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"ackscan/internal/transport"
)

const previewMaxRunes = 140

// Item is one unacknowledged message, ready to be rendered as a link.
type Item struct {
	Channel   string    // "#name"
	CreatedAt time.Time // UTC, minute precision
	URL       string
	Preview   string
}

func newItem(ch transport.Channel, m transport.Message) Item {
	return Item{
		Channel:   "#" + ch.Name,
		CreatedAt: m.CreatedAt.UTC().Truncate(time.Minute),
		URL:       m.Permalink,
		Preview:   preview(m.Content),
	}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// preview collapses line breaks and keeps the first 140 runes.
func preview(content string) string {
	s := strings.TrimSpace(lineBreaks.Replace(content))
	if utf8.RuneCountInString(s) > previewMaxRunes {
		s = string([]rune(s)[:previewMaxRunes])
	}
	if s == "" {
		return "(no text)"
	}
	return s
}
