// Package console renders outgoing notices to a terminal instead of Discord.
// It backs --dry-run.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"ackscan/internal/transport"
)

// Sender implements transport.Sender (and logx.Sender) by printing.
type Sender struct {
	mu sync.Mutex
	w  io.Writer

	channelStyle lipgloss.Style
	titleStyle   lipgloss.Style
	footerStyle  lipgloss.Style
	boxStyle     lipgloss.Style
	linkStyle    lipgloss.Style
	urlStyle     lipgloss.Style
	names        func(channelID string) string
}

// New returns a Sender writing to w. names, if set, maps channel IDs to
// display names for the header line.
func New(w io.Writer, names func(channelID string) string) *Sender {
	r := lipgloss.NewRenderer(w)
	return &Sender{
		w:            w,
		channelStyle: r.NewStyle().Foreground(lipgloss.Color("#999999")),
		titleStyle:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		footerStyle:  r.NewStyle().Foreground(lipgloss.Color("#A0AEC0")),
		boxStyle: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1),
		linkStyle: r.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		urlStyle:  r.NewStyle().Foreground(lipgloss.Color("#999999")),
		names:     names,
	}
}

func (s *Sender) SendNotice(_ context.Context, channelID string, n transport.Notice) error {
	parts := []string{s.titleStyle.Render(n.Title)}
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	if n.Footer != "" {
		parts = append(parts, s.footerStyle.Render(n.Footer))
	}
	body := s.boxStyle.Render(strings.Join(parts, "\n"))
	return s.write(channelID, body)
}

func (s *Sender) SendLinks(_ context.Context, channelID string, links []transport.Link) error {
	if len(links) == 0 {
		return nil
	}
	lines := make([]string, 0, len(links))
	for _, l := range links {
		lines = append(lines, "  "+s.linkStyle.Render("["+l.Label+"]")+" "+s.urlStyle.Render(l.URL))
	}
	return s.write(channelID, strings.Join(lines, "\n"))
}

func (s *Sender) SendText(_ context.Context, channelID, text string) error {
	return s.write(channelID, text)
}

func (s *Sender) write(channelID, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s\n%s\n", s.channelStyle.Render("→ "+s.label(channelID)), body)
	return err
}

func (s *Sender) label(channelID string) string {
	if s.names != nil {
		if name := s.names(channelID); name != "" {
			return "#" + name + " (" + channelID + ")"
		}
	}
	return channelID
}
