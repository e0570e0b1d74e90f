package report

import (
	"context"
	"fmt"

	"ackscan/internal/transport"
)

// Publisher renders one result set into a destination channel.
type Publisher struct {
	sender      transport.Sender
	windowHours int
}

func NewPublisher(sender transport.Sender, windowHours int) *Publisher {
	return &Publisher{sender: sender, windowHours: windowHours}
}

// Publish posts either a "nothing found" notice, or a summary notice followed
// by link batches. It returns the number of messages sent and stops at the
// first send error.
func (p *Publisher) Publish(ctx context.Context, channelID string, items []Item, category string, kind Kind) (int, error) {
	if len(items) == 0 {
		if err := p.sender.SendNotice(ctx, channelID, EmptyNotice(kind, category, p.windowHours)); err != nil {
			return 0, fmt.Errorf("send empty notice: %w", err)
		}
		return 1, nil
	}

	if err := p.sender.SendNotice(ctx, channelID, SummaryNotice(kind, category, p.windowHours, len(items))); err != nil {
		return 0, fmt.Errorf("send summary: %w", err)
	}
	sent := 1
	for i, batch := range LinkBatches(items) {
		if err := p.sender.SendLinks(ctx, channelID, batch); err != nil {
			return sent, fmt.Errorf("send link batch %d: %w", i+1, err)
		}
		sent++
	}
	return sent, nil
}
