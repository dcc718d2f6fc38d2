package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "moodcircle",
	Short: "Moodcircle - journaling with circles and AI insights",
	Long: `Moodcircle serves the journaling API: private, public and circle-shared
journal entries, circle membership management, mood statistics and AI
insights. Configuration is read from the environment and an optional .env file.

Running without a subcommand starts the server.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema for the configured store",
	Long: `Apply the SQL schema to DATABASE_URL. Only the postgres and sqlite
store drivers use a schema; other drivers have nothing to migrate.`,
	RunE: runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Moodcircle version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Moodcircle version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
