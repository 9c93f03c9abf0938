// Command reviewrisk scores scraped review blocks, classifies their
// sentiment and prices the reputational risk of the reviewed business.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/reviewrisk/internal/config"
	"github.com/tsawler/reviewrisk/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:   "reviewrisk",
		Short: "Review sentiment analysis and risk pricing",
		Long: `reviewrisk filters scraped text blocks down to genuine reviews, classifies
their sentiment, picks representative reviews per sentiment, aggregates
sentiment by visit date and turns the result into an insurance risk estimate.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&gf.configPath, "config", "", "YAML config file (defaults and environment when empty)")
	root.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "override the log level (debug, info, warn, error)")

	root.AddCommand(newRunCommand(gf))
	root.AddCommand(newRiskCommand(gf))
	root.AddCommand(newDateCommand())

	return root
}

// load reads the configuration and builds the logger for a subcommand.
func (gf *globalFlags) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(gf.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if gf.logLevel != "" {
		cfg.Logging.Level = gf.logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}
