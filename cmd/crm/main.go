/*
main.go - Application entry point

PURPOSE:
  Command line for the renewal CRM. `serve` runs the HTTP dashboard; the
  other commands run the same operations from a terminal.

COMMANDS:
  serve                 HTTP API on --port
  import FILE.xlsx      Upsert clients and append policies from a workbook
  renewals              List (or --export) policies due in --window days
  notify                Send reminders to everyone due in --window days

CONFIGURATION (environment, see config/config.go):
  CRM_PORT, CRM_DB_PATH, LOG_LEVEL, SENTRY_DSN, APP_ENV
  TWILIO_SID, TWILIO_TOKEN, TWILIO_WHATSAPP_FROM, TWILIO_CHANNEL
  Without all three Twilio values every send is simulated.

EXAMPLES:
  crm serve --db ./data/crm.db
  crm import clients.xlsx
  crm renewals --window 60 --export renewals_60d.xlsx
  crm notify --window 7
*/
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/warp/renewal-crm/config"
	"github.com/warp/renewal-crm/logging"
	"github.com/warp/renewal-crm/messaging"
	"github.com/warp/renewal-crm/store/sqlite"
)

var (
	cfg    config.Config
	logger *slog.Logger

	// Global flags
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "crm",
	Short:         "Insurance client CRM with renewal reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		logger = logging.Setup(cfg.LogLevel)

		if cfg.SentryDSN != "" {
			if err := sentry.Init(sentry.ClientOptions{
				Dsn:              cfg.SentryDSN,
				Environment:      cfg.Env,
				TracesSampleRate: 0,
			}); err != nil {
				logger.Warn("Sentry disabled", "error", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		sentry.Flush(2 * time.Second)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data/crm.db", "SQLite database path (overrides CRM_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(renewalsCmd)
	rootCmd.AddCommand(notifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Debug("Storage initialized", "database", cfg.DBPath)
	return store, nil
}

func newGateway() *messaging.Gateway {
	return messaging.NewGateway(cfg.Twilio, messaging.WithLogger(logger))
}
