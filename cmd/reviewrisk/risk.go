package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/reviewrisk"
)

func newRiskCommand(gf *globalFlags) *cobra.Command {
	var (
		summaryPath string
		trendsPath  string
		output      string
		baseRate    float64
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Price risk from existing summary and trend artifacts",
		Long: `Reads performance_summary.json and sentiment_trends.json, by default from
the output directory, and writes insurance_risk.json next to them.

Example:
  reviewrisk risk --output out/ --base-rate 7500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := gf.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if output != "" {
				cfg.Output = output
			}
			if summaryPath == "" {
				summaryPath = filepath.Join(cfg.Output, reviewrisk.SummaryFile)
			}
			if trendsPath == "" {
				trendsPath = filepath.Join(cfg.Output, reviewrisk.TrendsFile)
			}
			if cmd.Flags().Changed("base-rate") {
				cfg.Risk.BaseRate = baseRate
			}

			summary, err := reviewrisk.ReadPerformanceSummary(summaryPath)
			if err != nil {
				return err
			}
			trends, err := reviewrisk.ReadTrendReport(trendsPath)
			if err != nil {
				return err
			}

			model, err := reviewrisk.NewRiskModel(cfg.Risk)
			if err != nil {
				return fmt.Errorf("invalid risk configuration: %w", err)
			}
			ra, err := model.Assess(reviewrisk.RiskInputFrom(summary, trends))
			if err != nil {
				return fmt.Errorf("risk assessment failed: %w", err)
			}

			if err := reviewrisk.WriteRisk(cfg.Output, ra); err != nil {
				return err
			}
			logger.Info("Risk assessed",
				zap.String("risk_level", string(ra.Level)),
				zap.Int("risk_score", ra.Score),
				zap.Float64("insurance_cost", ra.Cost),
			)

			printRisk(cmd.OutOrStdout(), ra)
			return nil
		},
	}

	cmd.Flags().StringVar(&summaryPath, "summary", "", "performance summary JSON file")
	cmd.Flags().StringVar(&trendsPath, "trends", "", "sentiment trends JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "artifact directory")
	cmd.Flags().Float64Var(&baseRate, "base-rate", 0, "override the base insurance rate")

	return cmd
}
