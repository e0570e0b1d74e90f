package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ackscan/internal/app"
	"ackscan/internal/config"
	"ackscan/internal/report"
	"ackscan/internal/storage"
)

func TestVersionNotEmpty(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestExecuteVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetOut(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "ackscan ") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestCategoriesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"categories"})
	defer rootCmd.SetOut(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("categories command failed: %v", err)
	}
	for _, c := range config.Categories() {
		if !strings.Contains(out.String(), c.Name) || !strings.Contains(out.String(), c.OrdersChannelID) {
			t.Fatalf("missing %s in output:\n%s", c.Name, out.String())
		}
	}
	if !strings.Contains(out.String(), "14 output channels") {
		t.Fatalf("exclusion count missing:\n%s", out.String())
	}
}

func TestHistoryWithoutAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ackscan.json")
	if err := os.WriteFile(path, []byte(`{"discord":{"token":"t","guild_id":"1"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{"history", "--config", path})
	defer func() { configPath = "" }()
	err := rootCmd.Execute()
	if !errors.Is(err, app.ErrAuditDisabled) {
		t.Fatalf("err = %v, want ErrAuditDisabled", err)
	}
}

func TestPrintHistory(t *testing.T) {
	runs := []storage.RunEntry{
		{RunID: "b", Trigger: "schedule", StartedAt: time.Now(), Orders: 3, Messages: 4, Channels: 9, TookMS: 812},
		{RunID: "a", Trigger: "once", DryRun: true, StartedAt: time.Now().Add(-time.Hour), Error: "guild not found"},
	}
	var out bytes.Buffer
	if err := printHistory(&out, runs, "terminal"); err != nil {
		t.Fatalf("printHistory: %v", err)
	}
	for _, want := range []string{"schedule", "once (dry)", "812ms", "guild not found"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := printHistory(&out, runs, "json"); err != nil {
		t.Fatalf("printHistory json: %v", err)
	}
	if !strings.Contains(out.String(), `"run_id": "b"`) {
		t.Fatalf("json output:\n%s", out.String())
	}

	if err := printHistory(&out, runs, "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	out.Reset()
	if err := printHistory(&out, nil, "terminal"); err != nil || !strings.Contains(out.String(), "No runs") {
		t.Fatalf("empty history: %v %q", err, out.String())
	}
}

func TestPrintReport(t *testing.T) {
	rep := report.RunReport{
		RunID: "run-1",
		Since: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC),
		Took:  2 * time.Second,
		Categories: []report.CategoryReport{
			{Name: "Anjevinian", Channels: 4, Orders: 2, Messages: 1, Skipped: []string{"Messages"}},
		},
	}
	var out bytes.Buffer
	if err := printReport(&out, rep, "terminal"); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	for _, want := range []string{"run-1", "Anjevinian", "[Messages]", "Total: 2 orders, 1 messages"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q:\n%s", want, out.String())
		}
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()
	missing := fmt.Errorf("%w: 42", report.ErrGuildNotFound)
	if err := exitError(missing); err != nil {
		t.Fatalf("missing guild should exit cleanly, got %v", err)
	}
	boom := errors.New("list channels: boom")
	if err := exitError(boom); !errors.Is(err, boom) {
		t.Fatalf("exitError(boom) = %v", err)
	}
	if err := exitError(nil); err != nil {
		t.Fatalf("exitError(nil) = %v", err)
	}
}
