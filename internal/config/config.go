package config

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/tsawler/reviewrisk"
	"github.com/tsawler/reviewrisk/internal/logging"
)

// Classifier providers.
const (
	ProviderLexicon = "lexicon"
	ProviderOpenAI  = "openai"
)

// Config is the full configuration of a reviewrisk run.
type Config struct {
	Logging    logging.Config   `yaml:"logging"`
	Classifier ClassifierConfig `yaml:"classifier"`

	Input        string        `env:"REVIEWRISK_INPUT" yaml:"input"`
	Output       string        `env:"REVIEWRISK_OUTPUT" yaml:"output"`
	Timeout      time.Duration `env:"REVIEWRISK_TIMEOUT" yaml:"timeout"`
	KeywordsFile string        `env:"REVIEWRISK_KEYWORDS_FILE" yaml:"keywords_file"`
	LexiconFile  string        `env:"REVIEWRISK_LEXICON_FILE" yaml:"lexicon_file"`

	Quality    reviewrisk.QualityConfig    `yaml:"quality"`
	Sentiment  reviewrisk.SentimentConfig  `yaml:"sentiment"`
	Normalizer reviewrisk.NormalizerConfig `yaml:"normalizer"`
	Cluster    reviewrisk.ClusterConfig    `yaml:"cluster"`
	Risk       reviewrisk.RiskConfig       `yaml:"risk"`
}

// ClassifierConfig selects and configures the sentiment capability.
type ClassifierConfig struct {
	Provider          string        `env:"REVIEWRISK_CLASSIFIER" yaml:"provider"`
	Model             string        `env:"OPENAI_MODEL" yaml:"model"`
	APIKey            string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	BaseURL           string        `env:"OPENAI_BASE_URL" yaml:"base_url"`
	RequestsPerSecond float64       `env:"REVIEWRISK_CLASSIFIER_RPS" yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ContentScoring    bool          `env:"REVIEWRISK_CONTENT_SCORING" yaml:"content_scoring"`
}

// Default returns the configuration used when a key is absent.
func Default() Config {
	sentiment := reviewrisk.DefaultSentimentConfig()
	sentiment.Labels = maps.Clone(sentiment.Labels)

	return Config{
		Logging: logging.Config{Level: logging.DefaultLevel},
		Classifier: ClassifierConfig{
			Provider:          ProviderLexicon,
			Model:             "gpt-4o-mini",
			RequestsPerSecond: 5,
			Burst:             1,
			RequestTimeout:    30 * time.Second,
		},
		Output:     "out",
		Quality:    reviewrisk.DefaultQualityConfig(),
		Sentiment:  sentiment,
		Normalizer: reviewrisk.DefaultNormalizerConfig(),
		Cluster:    reviewrisk.DefaultClusterConfig(),
		Risk:       reviewrisk.DefaultRiskConfig(),
	}
}

// LoadConfig reads path over the defaults and validates the result. An
// empty path yields the defaults with environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg, err := LoadWithBase(path, Default())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error

	switch c.Classifier.Provider {
	case ProviderLexicon:
	case ProviderOpenAI:
		if c.Classifier.APIKey == "" {
			errs = append(errs, errors.New("classifier.api_key (OPENAI_API_KEY) is required for the openai provider"))
		}
		if c.Classifier.RequestsPerSecond <= 0 {
			errs = append(errs, errors.New("classifier.requests_per_second must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("classifier.provider %q: want %q or %q",
			c.Classifier.Provider, ProviderLexicon, ProviderOpenAI))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s is negative", c.Timeout))
	}

	for section, validate := range map[string]func() error{
		"quality":    c.Quality.Validate,
		"sentiment":  c.Sentiment.Validate,
		"normalizer": c.Normalizer.Validate,
		"cluster":    c.Cluster.Validate,
		"risk":       c.Risk.Validate,
	} {
		if err := validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}

	return errors.Join(errs...)
}

// PipelineOptions converts the configuration into pipeline options.
func (c *Config) PipelineOptions() []reviewrisk.Option {
	return []reviewrisk.Option{
		reviewrisk.WithQualityConfig(c.Quality),
		reviewrisk.WithSentimentConfig(c.Sentiment),
		reviewrisk.WithNormalizerConfig(c.Normalizer),
		reviewrisk.WithClusterConfig(c.Cluster),
		reviewrisk.WithRiskConfig(c.Risk),
		reviewrisk.WithTimeout(c.Timeout),
	}
}
