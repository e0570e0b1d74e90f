package report

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"ackscan/internal/config"
	"ackscan/internal/transport"
	logx "ackscan/pkg/logx"
)

var testCategory = config.Category{ID: "cat", Name: "Anjevinian", OrdersChannelID: "out-orders", MessagesChannelID: "out-messages"}

func testSettings() Settings {
	return Settings{
		GuildID:     "g1",
		AckRoleID:   "role",
		Window:      168 * time.Hour,
		Concurrency: 4,
		MaxResults:  500,
		Categories:  []config.Category{testCategory},
	}
}

func newTestRunner(f *fakePlatform, s *fakeSender, settings Settings) *Runner {
	r := NewRunner(settings, f, s, logx.Nop())
	r.now = func() time.Time { return base }
	return r
}

func TestRunPublishesOrdersAndEmptyMessages(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.addChannel("c1", "cat", "front-line", msgAt("m1", "📜 advance at dawn", base, 2*time.Hour))
	f.addChannel("c2", "cat", "chatter", msgAt("m2", "nothing to see", base, time.Hour))
	f.addDestination("out-orders", "orders")
	f.addDestination("out-messages", "messages")
	s := &fakeSender{}

	rep, err := newTestRunner(f, s, testSettings()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Categories) != 1 || rep.Categories[0].Orders != 1 || rep.Categories[0].Messages != 0 {
		t.Fatalf("unexpected report: %+v", rep.Categories)
	}
	if !rep.Since.Equal(base.Add(-168 * time.Hour)) {
		t.Fatalf("Since = %v", rep.Since)
	}

	orders := s.to("out-orders")
	if len(orders) != 2 {
		t.Fatalf("orders destination got %d sends, want summary + 1 batch", len(orders))
	}
	if orders[0].notice == nil || orders[0].notice.Footer != "Total: 1" {
		t.Fatalf("first send should be the summary notice: %+v", orders[0])
	}
	if !strings.Contains(orders[0].notice.Description, "Anjevinian") || !strings.Contains(orders[0].notice.Description, "168 hours") {
		t.Fatalf("summary description = %q", orders[0].notice.Description)
	}
	if len(orders[1].links) != 1 {
		t.Fatalf("batch has %d links, want 1", len(orders[1].links))
	}
	link := orders[1].links[0]
	if link.URL != "https://discord.com/channels/g1/c1/m1" {
		t.Fatalf("link url = %s", link.URL)
	}
	if link.Label != "#front-line · 10:00 • 📜 advance at dawn" {
		t.Fatalf("link label = %q", link.Label)
	}

	msgs := s.to("out-messages")
	if len(msgs) != 1 || msgs[0].notice == nil || msgs[0].notice.Footer != "" {
		t.Fatalf("messages destination should get one empty notice, got %+v", msgs)
	}
	if !strings.HasPrefix(msgs[0].notice.Title, MessageMarker) || !strings.Contains(msgs[0].notice.Description, "No matching messages") {
		t.Fatalf("empty notice = %+v", msgs[0].notice)
	}
}

func TestRunAcknowledgedMessageAppearsNowhere(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.addChannel("c1", "cat", "front-line", msgAt("m1", "📜✉️ both", base, time.Hour, ackReaction(2)))
	f.reactors["m1"] = []string{"rando", "boss"}
	f.roleHolder["boss"] = true
	f.addDestination("out-orders", "orders")
	f.addDestination("out-messages", "messages")
	s := &fakeSender{}

	rep, err := newTestRunner(f, s, testSettings()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o, m := rep.Totals(); o != 0 || m != 0 {
		t.Fatalf("totals = %d/%d, want 0/0", o, m)
	}
	for _, dest := range []string{"out-orders", "out-messages"} {
		sent := s.to(dest)
		if len(sent) != 1 || sent[0].notice == nil || sent[0].notice.Footer != "" {
			t.Fatalf("%s should only get an empty notice, got %+v", dest, sent)
		}
	}
}

func TestRunUnresolvableDestinationSkipsOnlyThatHalf(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.addChannel("c1", "cat", "front-line",
		msgAt("m1", "📜 order", base, time.Hour),
		msgAt("m2", "✉️ letter", base, 2*time.Hour),
	)
	f.addDestination("out-messages", "messages") // out-orders is missing
	s := &fakeSender{}

	rep, err := newTestRunner(f, s, testSettings()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := s.to("out-orders"); len(got) != 0 {
		t.Fatalf("unresolvable destination received %d sends", len(got))
	}
	if got := s.to("out-messages"); len(got) != 2 {
		t.Fatalf("sibling destination got %d sends, want summary + batch", len(got))
	}
	cr := rep.Categories[0]
	if !reflect.DeepEqual(cr.Skipped, []string{"Orders"}) || !reflect.DeepEqual(cr.Published, []string{"Messages"}) {
		t.Fatalf("published=%v skipped=%v", cr.Published, cr.Skipped)
	}
}

func TestRunNonPostableDestinationIsSkipped(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.addDestination("out-orders", "orders")
	f.destinations["out-messages"] = transport.Channel{ID: "out-messages", Name: "voice", Postable: false}
	s := &fakeSender{}

	if _, err := newTestRunner(f, s, testSettings()).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.to("out-messages")) != 0 {
		t.Fatal("non-postable destination must not receive sends")
	}
	if len(s.to("out-orders")) != 1 {
		t.Fatal("orders destination should get its empty notice")
	}
}

func TestRunMissingGuildScansNothing(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.guild = nil
	f.addChannel("c1", "cat", "front-line", msgAt("m1", "📜", base, time.Hour))
	s := &fakeSender{}

	rep, err := newTestRunner(f, s, testSettings()).Run(context.Background())
	if !errors.Is(err, ErrGuildNotFound) {
		t.Fatalf("err = %v, want ErrGuildNotFound", err)
	}
	if rep.Error == "" || len(rep.Categories) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if f.historyCalls["c1"] != 0 || len(s.sent) != 0 {
		t.Fatal("nothing should be scanned or sent")
	}
}

func TestRunSendFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.addDestination("out-orders", "orders")
	f.addDestination("out-messages", "messages")
	settings := testSettings()
	second := config.Category{ID: "cat2", Name: "Free Laonam", OrdersChannelID: "o2", MessagesChannelID: "m2"}
	settings.Categories = append(settings.Categories, second)
	s := &fakeSender{err: errors.New("503")}

	rep, err := newTestRunner(f, s, settings).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Categories) != 2 {
		t.Fatalf("categories processed = %d, want 2", len(rep.Categories))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFakePlatform()
	f.addChannel("c1", "cat", "a", msgAt("m1", "📜 one", base, time.Hour), msgAt("m2", "✉️ two", base, 2*time.Hour))
	f.addChannel("c2", "cat", "b", msgAt("m3", "📜✉️ three", base, 3*time.Hour))
	f.addDestination("out-orders", "orders")
	f.addDestination("out-messages", "messages")

	run := func() []sentMessage {
		s := &fakeSender{}
		if _, err := newTestRunner(f, s, testSettings()).Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s.sent
	}
	links := func(sent []sentMessage) map[string]bool {
		out := map[string]bool{}
		for _, m := range sent {
			for _, l := range m.links {
				out[m.channelID+" "+l.URL] = true
			}
		}
		return out
	}
	first, second := links(run()), links(run())
	if len(first) != 4 {
		t.Fatalf("first run produced %d links, want 4", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ:\n%v\n%v", first, second)
	}
}
