package cli

import (
	"github.com/spf13/cobra"

	"ackscan/internal/app"
)

var serveDryRun bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run on the configured schedule until interrupted",
	Long: "serve keeps the gateway connection open and scans on the schedule from config " +
		"(cron like \"0 9 * * *\", or an interval like \"6h\"). Config file edits apply to the next run.",
	RunE: serveAction,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "print summaries to the terminal instead of posting")
	rootCmd.AddCommand(serveCmd)
}

func serveAction(cmd *cobra.Command, _ []string) error {
	a, err := app.New(app.Options{
		ConfigPath: resolveConfigPath(),
		DryRun:     serveDryRun,
		LogLevel:   logLevel,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return a.Serve(cmd.Context())
}
