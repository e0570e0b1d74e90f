// Package cli provides the command-line interface for ackscan.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "ACKSCAN_CONFIG"

const defaultConfigFile = "ackscan.yaml"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "ackscan",
	Short: "Post unacknowledged orders and messages per category",
	Long: "ackscan scans a Discord guild for messages marked 📜 (orders) or ✉️ (messages) " +
		"that no acknowledger has ticked ✅, and posts jump-link summaries per category.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ackscan %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (JSON or YAML); default $"+EnvConfigPath+" or ./"+defaultConfigFile+" if present")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (TRACE, DEBUG, INFO, WARN, ERROR)")
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigPath picks the config file. Empty means environment only.
func resolveConfigPath() string {
	if p := strings.TrimSpace(configPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
