package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "todoboard",
	Short:         "todoboard - a small todo board with assignees",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web page and RPC server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the board tables and exit",
	RunE:  runMigrate,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the board in the terminal",
	RunE:  runTUI,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow board change events from the broker",
	RunE:  runEvents,
}

var (
	serverURL    string
	eventPattern string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")
	tuiCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Board server base URL")
	tuiCmd.Flags().String("log-file", "", "Write client logs to this file")
	eventsCmd.Flags().StringVar(&eventPattern, "pattern", "#", "Routing key pattern to follow")
	rootCmd.AddCommand(serveCmd, migrateCmd, tuiCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
