// Package cmd implements the oppaware command line.
package cmd

import (
	"io"
	"os"
	"time"

	"oppaware/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "oppaware",
		Short:        "Opponent-aware Monte Carlo tree search",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to a YAML or JSON config file")
	root.AddCommand(newDecideCommand())
	return root
}

// loadConfig reads the --config file and configures the global logger from it
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return cfg, err
	}
	setupLogging(cmd.ErrOrStderr(), level, cfg.Logging.Pretty)
	return cfg, nil
}

func setupLogging(w io.Writer, level zerolog.Level, pretty bool) {
	zerolog.SetGlobalLevel(level)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
