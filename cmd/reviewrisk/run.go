package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/reviewrisk"
	"github.com/tsawler/reviewrisk/internal/config"
	"github.com/tsawler/reviewrisk/internal/llm"
)

func newRunCommand(gf *globalFlags) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline over an extracted blocks file",
		Long: `Reads a JSON array of {"text", "source"} blocks and writes the trend,
summary, representative and risk artifacts to the output directory.

Example:
  reviewrisk run --input blocks.json --output out/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := gf.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if input != "" {
				cfg.Input = input
			}
			if output != "" {
				cfg.Output = output
			}
			return runPipeline(cmd, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "extracted blocks JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "artifact directory")

	return cmd
}

func runPipeline(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Input == "" {
		return errors.New("no input file: set --input or input in the config")
	}

	blocks, err := reviewrisk.ReadRawBlocks(cfg.Input)
	if err != nil {
		if errors.Is(err, reviewrisk.ErrNoData) {
			logger.Warn("Nothing to analyze", zap.String("input", cfg.Input), zap.Error(err))
			return nil
		}
		return err
	}

	if cfg.KeywordsFile != "" {
		keywords, err := reviewrisk.LoadKeywordLexicon(cfg.KeywordsFile)
		if err != nil {
			return err
		}
		cfg.Normalizer.Keywords = keywords
	}

	classifier, content, err := buildClassifier(cfg)
	if err != nil {
		return err
	}

	opts := append(cfg.PipelineOptions(), reviewrisk.WithLogger(logger))
	if content != nil {
		opts = append(opts, reviewrisk.WithContentClassifier(content))
	}
	opts = append(opts, reviewrisk.WithProgressCallback(func(p float64) {
		logger.Debug("Progress", zap.Float64("progress", p))
	}))

	pipeline, err := reviewrisk.NewPipeline(classifier, opts...)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	res, err := pipeline.Run(cmd.Context(), blocks)
	if err != nil {
		if errors.Is(err, reviewrisk.ErrNoData) {
			logger.Warn("Nothing to analyze", zap.String("input", cfg.Input), zap.Error(err))
			return nil
		}
		logger.Error("Run failed", zap.Error(err))
		return err
	}

	if err := reviewrisk.WriteArtifacts(cfg.Output, res); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}
	logger.Info("Artifacts written", zap.String("output", cfg.Output))

	printRisk(cmd.OutOrStdout(), res.Risk)
	return nil
}

// buildClassifier returns the sentiment capability selected by the
// configuration and, when enabled, the human-content capability.
func buildClassifier(cfg *config.Config) (reviewrisk.Classifier, reviewrisk.ContentClassifier, error) {
	switch cfg.Classifier.Provider {
	case config.ProviderOpenAI:
		c, err := llm.New(llm.Config{
			APIKey:            cfg.Classifier.APIKey,
			BaseURL:           cfg.Classifier.BaseURL,
			Model:             cfg.Classifier.Model,
			RequestsPerSecond: cfg.Classifier.RequestsPerSecond,
			Burst:             cfg.Classifier.Burst,
			RequestTimeout:    cfg.Classifier.RequestTimeout,
			Ternary:           cfg.Sentiment.Mode == reviewrisk.TernaryMode,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Classifier.ContentScoring {
			return c, c, nil
		}
		return c, nil, nil

	default:
		lexicon := reviewrisk.NewSentimentLexicon()
		if cfg.LexiconFile != "" {
			if err := lexicon.LoadExternalLexicon(cfg.LexiconFile); err != nil {
				return nil, nil, err
			}
		}
		return reviewrisk.NewLexiconClassifier(lexicon), nil, nil
	}
}

func printRisk(w io.Writer, ra reviewrisk.RiskAssessment) {
	_, _ = fmt.Fprintf(w, "risk level: %s\nrisk score: %d\ninsurance cost: %.2f\n", ra.Level, ra.Score, ra.Cost)
}
