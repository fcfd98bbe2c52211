package main

import (
	"fmt"

	"github.com/artpar/minapi/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the minapi HTTP server.

The server will:
  - Load configuration from minapi.yaml (or --config) and watch it for changes
  - Or load configuration from MINAPI_* environment variables
  - Seed the in-memory stores
  - Serve until SIGINT or SIGTERM

SIGHUP reloads the configuration file; only logging.level applies without a
restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
		Commit:     commit,
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	return app.Run()
}
