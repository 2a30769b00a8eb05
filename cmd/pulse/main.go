// Package main provides the pulse CLI:
// - serve: HTTP API over cached reports, with optional live ingestion
// - analyze: one-shot report for an asset, printed as JSON
// - ingest: websocket feed → event store
// - migrate: apply Postgres and ClickHouse migrations
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"crowd-pulse-lab/internal/config"
	"crowd-pulse-lab/internal/logging"
)

const appName = "pulse"

// app carries state resolved by the root command for every subcommand.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	pretty     bool

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Social engagement and holder-risk analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to YAML config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "Path to .env file (ignored when missing)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	flags.BoolVar(&a.pretty, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(
		newServeCmd(a),
		newAnalyzeCmd(a),
		newIngestCmd(a),
		newMigrateCmd(a),
	)
	return rootCmd
}

// init loads configuration and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = a.pretty
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log.With().Str("cmd", cmd.Name()).Logger()
	return nil
}
