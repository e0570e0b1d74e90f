package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"ackscan/internal/app"
	"ackscan/internal/report"
)

var (
	dryRun    bool
	runFormat string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan once, post summaries, and exit",
	RunE:  runAction,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "print summaries to the terminal instead of posting")
		c.Flags().StringVar(&runFormat, "format", "terminal", "report output format: terminal, json")
	}
	rootCmd.AddCommand(runCmd)
}

func runAction(cmd *cobra.Command, _ []string) error {
	if runFormat != "terminal" && runFormat != "json" {
		return fmt.Errorf("unknown --format %q (terminal, json)", runFormat)
	}
	a, err := app.New(app.Options{
		ConfigPath: resolveConfigPath(),
		DryRun:     dryRun,
		LogLevel:   logLevel,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	rep, runErr := a.RunOnce(cmd.Context())
	if rep.RunID != "" {
		if err := printReport(cmd.OutOrStdout(), rep, runFormat); err != nil {
			return err
		}
	}
	return exitError(runErr)
}

// exitError maps a run error to the process result. A missing guild has
// already been logged and ends the run cleanly with nothing scanned.
func exitError(err error) error {
	if errors.Is(err, report.ErrGuildNotFound) {
		return nil
	}
	return err
}

func printReport(w io.Writer, rep report.RunReport, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	r := lipgloss.NewRenderer(w)
	head := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("#999999"))).
		Headers("Category", "Channels", "📜 Orders", "✉️ Messages", "Skipped")
	for _, c := range rep.Categories {
		skipped := "-"
		if len(c.Skipped) > 0 {
			skipped = fmt.Sprint(c.Skipped)
		}
		t.Row(c.Name, strconv.Itoa(c.Channels), strconv.Itoa(c.Orders), strconv.Itoa(c.Messages), skipped)
	}
	o, m := rep.Totals()
	_, err := fmt.Fprintf(w, "%s\n%s\nTotal: %d orders, %d messages since %s (took %s)\n",
		head.Render("Run "+rep.RunID),
		t.Render(),
		o, m, rep.Since.Format("2006-01-02 15:04 MST"), rep.Took.Round(time.Millisecond),
	)
	return err
}
