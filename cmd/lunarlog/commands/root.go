package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lunarlog/cycle-engine/config"
	"github.com/lunarlog/cycle-engine/store/sqlite"
)

var (
	// Global flags
	configPath string
	dbPath     string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lunarlog",
		Short: "LunarLog - menstrual cycle tracker",
		Long: `LunarLog records period start and end dates, keeps them in a local
SQLite database and derives predictions from the history.

Features:
  - Live cycle snapshots over Server-Sent Events
  - Next period, ovulation and fertile window forecasts
  - Irregularity and trend detection
  - Daily reminders on a cron schedule
  - JSON and YAML backups`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides database.path)")

	// Add subcommands
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newToggleCommand())
	rootCmd.AddCommand(newSummaryCommand())

	return rootCmd
}

// loadConfig reads configuration, applies flag overrides and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	setupLogging(cfg.Log, os.Stderr)
	return cfg, nil
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig, out io.Writer) {
	if cfg.Format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// openStore loads config and opens the database it names.
func openStore() (*config.Config, *sqlite.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}
	return cfg, store, nil
}
