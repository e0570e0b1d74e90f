package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"ackscan/internal/app"
	"ackscan/internal/storage"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the run audit",
	RunE:  historyAction,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	historyCmd.Flags().StringVar(&historyFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(historyCmd)
}

func historyAction(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	runs, err := app.RecentRuns(cmd.Context(), resolveConfigPath(), historyLimit)
	if err != nil {
		return err
	}
	return printHistory(cmd.OutOrStdout(), runs, historyFormat)
}

func printHistory(w io.Writer, runs []storage.RunEntry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case "terminal", "":
	default:
		return fmt.Errorf("unknown --format %q (terminal, json)", format)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}

	r := lipgloss.NewRenderer(w)
	failed := r.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Started", "Trigger", "📜", "✉️", "Channels", "Took", "Error")
	for _, e := range runs {
		trig := e.Trigger
		if e.DryRun {
			trig += " (dry)"
		}
		errText := ""
		if e.Error != "" {
			errText = failed.Render(e.Error)
		}
		t.Row(
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			trig,
			strconv.Itoa(e.Orders),
			strconv.Itoa(e.Messages),
			strconv.Itoa(e.Channels),
			strconv.FormatInt(e.TookMS, 10)+"ms",
			errText,
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
