package report

import (
	"fmt"
	"unicode/utf8"

	"ackscan/internal/transport"
)

const (
	// MaxLinksPerBatch is Discord's limit of interactive components per
	// message (5 action rows x 5 buttons).
	MaxLinksPerBatch = 25
	// MaxLabelRunes is Discord's button label limit.
	MaxLabelRunes = 80
)

// LinkLabel renders "#channel · HH:MM • preview", cut to MaxLabelRunes.
func LinkLabel(it Item) string {
	label := fmt.Sprintf("%s · %s • %s", it.Channel, it.CreatedAt.UTC().Format("15:04"), it.Preview)
	if utf8.RuneCountInString(label) <= MaxLabelRunes {
		return label
	}
	return string([]rune(label)[:MaxLabelRunes-3]) + "…"
}

// LinkBatches splits items into consecutive batches of at most
// MaxLinksPerBatch links, preserving order.
func LinkBatches(items []Item) [][]transport.Link {
	if len(items) == 0 {
		return nil
	}
	out := make([][]transport.Link, 0, (len(items)+MaxLinksPerBatch-1)/MaxLinksPerBatch)
	for start := 0; start < len(items); start += MaxLinksPerBatch {
		end := min(start+MaxLinksPerBatch, len(items))
		batch := make([]transport.Link, 0, end-start)
		for _, it := range items[start:end] {
			batch = append(batch, transport.Link{Label: LinkLabel(it), URL: it.URL})
		}
		out = append(out, batch)
	}
	return out
}

func noticeTitle(kind Kind) string {
	return fmt.Sprintf("%s Unacknowledged %s", kind.Glyph, kind.Label)
}

// EmptyNotice is posted when a category has nothing for kind.
func EmptyNotice(kind Kind, category string, windowHours int) transport.Notice {
	return transport.Notice{
		Title:       noticeTitle(kind),
		Description: fmt.Sprintf("No matching messages in **%s** in the last %d hours. 🎉", category, windowHours),
	}
}

// SummaryNotice heads a list of link batches.
func SummaryNotice(kind Kind, category string, windowHours, total int) transport.Notice {
	return transport.Notice{
		Title:       noticeTitle(kind),
		Description: fmt.Sprintf("**%s** · Tap a button to jump. Window: last %d hours.", category, windowHours),
		Footer:      fmt.Sprintf("Total: %d", total),
	}
}
