package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"ackscan/internal/config"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the compiled categories and their output channels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printCategories(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func printCategories(w io.Writer) error {
	cats := config.Categories()
	r := lipgloss.NewRenderer(w)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("#999999"))).
		Headers("Category", "ID", "📜 Orders channel", "✉️ Messages channel")
	for _, c := range cats {
		t.Row(c.Name, c.ID, c.OrdersChannelID, c.MessagesChannelID)
	}
	_, err := fmt.Fprintf(w, "%s\n%d output channels are never scanned.\n",
		t.Render(), len(config.OutputChannelIDs(cats)))
	return err
}
