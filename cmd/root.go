package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/scheduleai/internal/config"
	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/server"
)

// rootCmd represents the base command for the scheduleai application
var rootCmd = &cobra.Command{
	Use:   "scheduleai",
	Short: "Manages per-user Google Calendar access",
	Long: `scheduleai manages per-user Google Calendar credentials and produces
daily schedule summaries.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "scheduleai version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newRevokeCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// newServerContext loads the configuration and wires up the credential
// store, authenticator, fetcher and schedule service for CLI commands.
func newServerContext(cmd *cobra.Command, debug bool) (*server.ServerContext, error) {
	logger := logging.Setup(debug)

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	return server.NewServerContext(cmd.Context(), cfg, logger)
}
