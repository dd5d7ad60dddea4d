/*
main.go - Application entry point

PURPOSE:
  Runs the lunarlog CLI. The serve subcommand starts the HTTP API; the
  other subcommands operate on the database directly.

COMMANDS:
  serve     Start the HTTP API and the reminder scheduler
  migrate   Apply migrations and print the schema version
  export    Write a backup to a file or stdout
  import    Replace all cycles from a backup file
  toggle    Start, end or resume the period for today
  summary   Print the home summary

EXAMPLES:
  # Run with file database
  lunarlog serve --db ./data/lunarlog.db

  # Run with in-memory database
  lunarlog serve --db ":memory:"

  # Configure through the environment
  LUNARLOG_SERVER_PORT=3000 LUNARLOG_LOG_FORMAT=json lunarlog serve

SEE ALSO:
  - commands/: Subcommand implementations
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lunarlog/cycle-engine/cmd/lunarlog/commands"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	// Console logging until the config says otherwise
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, Version, Commit, BuildDate); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		stop()
		os.Exit(1)
	}
}
