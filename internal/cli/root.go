// Package cli implements the mimecast command tree. Every command is a
// thin caller of the core client: it builds a request or filter set, runs
// one core operation and prints the outcome.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mimecast-cli/internal/config"
	"github.com/custodia-labs/mimecast-cli/internal/logger"
)

var (
	// version is set by goreleaser ldflags.
	version = "dev"

	// verbose enables debug logging.
	verbose bool

	// configStore is injected by main.
	configStore *config.Store
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "mimecast",
	Short: "Command-line client for the Mimecast email security API",
	Long: `mimecast talks to the Mimecast API 2.0: connect with OAuth2 client
credentials, call resource endpoints, search the message archive, trace
message delivery and export audit logs.

Credentials are never stored. Set MIMECAST_CLIENT_SECRET (and optionally
MIMECAST_CLIENT_ID) in the environment, or let 'mimecast connect' prompt.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// SetConfigStore injects the profile store for CLI commands.
func SetConfigStore(s *config.Store) {
	configStore = s
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")

	// Set verbose mode before any command executes.
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
