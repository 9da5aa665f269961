// ABOUTME: Root command, global flags and service setup shared by subcommands
// ABOUTME: Loads .env and configuration, then opens the configured store and providers
package commands

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/app"
	"github.com/harper/podcast-index/internal/config"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██████╗  ██████╗ ██████╗ ██╗███╗   ██╗██████╗ ███████╗██╗  ██╗
██╔══██╗██╔═══██╗██╔══██╗██║████╗  ██║██╔══██╗██╔════╝╚██╗██╔╝
██████╔╝██║   ██║██║  ██║██║██╔██╗ ██║██║  ██║█████╗   ╚███╔╝
██╔═══╝ ██║   ██║██║  ██║██║██║╚██╗██║██║  ██║██╔══╝   ██╔██╗
██║     ╚██████╔╝██████╔╝██║██║ ╚████║██████╔╝███████╗██╔╝ ██╗
╚═╝      ╚═════╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚═════╝ ╚══════╝╚═╝  ╚═╝`

// openService builds the service for a command; tests replace it
var openService = defaultOpenService

// NewRootCmd creates the root command with all subcommands
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "podindex",
		Short: "Hierarchical semantic index for podcast transcripts",
		Long: banner + `

Index podcast transcripts into episode, topic, paragraph and sentence
chunks with best-effort timestamps, then search them with queries that
are routed to the most useful level.

Configuration comes from the environment (or a .env file):
  OPENAI_API_KEY, PODINDEX_PROVIDER, PODINDEX_BACKEND, PODINDEX_DB_PATH, ...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "json", "table":
				return nil
			}
			return fmt.Errorf("--format must be auto, json or table, got %q", outputFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json or table")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewSearchCmd(),
		NewClassifyCmd(),
		NewListCmd(),
		NewShowCmd(),
		NewDeleteCmd(),
		NewSyncCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// logLevel picks the level from the global flags, falling back to config
func logLevel(cfg *config.Config) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// defaultOpenService loads configuration and opens the configured backends.
// The returned cleanup closes the store and the log file.
func defaultOpenService(cmd *cobra.Command) (*app.Service, func(), error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, logLevel(cfg))
	slog.SetDefault(logger)

	svc, err := app.Open(cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			logger.Warn("closing storage", "error", err)
		}
		_ = closeLog()
	}
	return svc, cleanup, nil
}
