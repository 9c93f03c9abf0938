package reviewrisk

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Classification is the raw answer of an external sentiment capability.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier is the external sentiment capability. Binary classifiers answer
// POSITIVE or NEGATIVE; ternary ones may also answer NEUTRAL.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// ClassifierMode tells the adapter how to interpret classifier labels.
type ClassifierMode string

const (
	// BinaryMode demotes low-confidence polarities to NEUTRAL.
	BinaryMode ClassifierMode = "binary"
	// TernaryMode passes the mapped label through unchanged.
	TernaryMode ClassifierMode = "ternary"
)

// DefaultLabels maps the label spellings of common classifiers onto the
// three-class taxonomy.
var DefaultLabels = map[string]Sentiment{
	"positive": Positive,
	"pos":      Positive,
	"label_1":  Positive,
	"negative": Negative,
	"neg":      Negative,
	"label_0":  Negative,
	"neutral":  Neutral,
	"neu":      Neutral,
}

// SentimentConfig configures the SentimentAdapter.
type SentimentConfig struct {
	Threshold      float64              `yaml:"threshold"`        // Confidence above which a binary polarity is trusted
	MaxInputLength int                  `yaml:"max_input_length"` // Runes sent to the classifier
	BatchSize      int                  `yaml:"batch_size"`       // Chunk size for progress reporting
	Mode           ClassifierMode       `yaml:"mode"`
	Labels         map[string]Sentiment `yaml:"labels"` // Lower-cased external label -> sentiment
}

// DefaultSentimentConfig returns standard configuration.
func DefaultSentimentConfig() SentimentConfig {
	return SentimentConfig{
		Threshold:      0.8,
		MaxInputLength: 400,
		BatchSize:      32,
		Mode:           BinaryMode,
		Labels:         DefaultLabels,
	}
}

// Validate checks the configuration.
func (c SentimentConfig) Validate() error {
	if err := checkUnit("confidence threshold", c.Threshold); err != nil {
		return err
	}
	if c.MaxInputLength <= 0 {
		return fmt.Errorf("%w: max input length %d", ErrInvalidInput, c.MaxInputLength)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidInput, c.BatchSize)
	}
	if c.Mode != BinaryMode && c.Mode != TernaryMode {
		return fmt.Errorf("%w: classifier mode %q", ErrInvalidInput, c.Mode)
	}
	for label, s := range c.Labels {
		if !s.Valid() {
			return fmt.Errorf("%w: label %q maps to %q", ErrInvalidInput, label, s)
		}
	}
	return nil
}

// SentimentAdapter wraps a Classifier and remaps its answers onto the
// three-class taxonomy.
type SentimentAdapter struct {
	classifier Classifier
	config     SentimentConfig
	labels     map[string]Sentiment
	logger     *zap.Logger
	progress   func(done, total int)
}

// AdapterOption configures a SentimentAdapter.
type AdapterOption func(sa *SentimentAdapter)

// UsingAdapterLogger sets the logger.
func UsingAdapterLogger(logger *zap.Logger) AdapterOption {
	return func(sa *SentimentAdapter) {
		sa.logger = logger
	}
}

// UsingBatchProgress reports the number of classified texts after each chunk.
func UsingBatchProgress(callback func(done, total int)) AdapterOption {
	return func(sa *SentimentAdapter) {
		sa.progress = callback
	}
}

// NewSentimentAdapter creates an adapter. A nil classifier is an error: the
// pipeline never invents sentiment labels.
func NewSentimentAdapter(classifier Classifier, config SentimentConfig, opts ...AdapterOption) (*SentimentAdapter, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: no classifier configured", ErrClassifierUnavailable)
	}
	if config.Labels == nil {
		config.Labels = DefaultLabels
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	labels := make(map[string]Sentiment, len(config.Labels))
	for k, v := range config.Labels {
		labels[strings.ToLower(strings.TrimSpace(k))] = v
	}

	sa := &SentimentAdapter{
		classifier: classifier,
		config:     config,
		labels:     labels,
		logger:     zap.NewNop(),
	}
	for _, applyOpt := range opts {
		applyOpt(sa)
	}
	return sa, nil
}

// Analyze classifies one text. Whitespace runs are folded before the text
// is truncated and sent; the record keeps the original text.
func (sa *SentimentAdapter) Analyze(ctx context.Context, text string) (SentimentRecord, error) {
	result, err := sa.classifier.Classify(ctx, truncateRunes(collapseSpace(text), sa.config.MaxInputLength))
	if err != nil {
		return SentimentRecord{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}

	if math.IsNaN(result.Confidence) || result.Confidence < 0 || result.Confidence > 1 {
		return SentimentRecord{}, fmt.Errorf("%w: classifier confidence %v for label %q",
			ErrInvalidInput, result.Confidence, result.Label)
	}

	sentiment, err := sa.Remap(result)
	if err != nil {
		return SentimentRecord{}, err
	}

	return SentimentRecord{
		Text:       text,
		Sentiment:  sentiment,
		Confidence: result.Confidence,
		RawLabel:   result.Label,
	}, nil
}

// Remap applies the label table and, in binary mode, the confidence threshold.
func (sa *SentimentAdapter) Remap(c Classification) (Sentiment, error) {
	mapped, ok := sa.labels[strings.ToLower(strings.TrimSpace(c.Label))]
	if !ok {
		return "", fmt.Errorf("%w: unknown classifier label %q", ErrInvalidInput, c.Label)
	}

	if sa.config.Mode == TernaryMode || mapped == Neutral {
		return mapped, nil
	}
	if c.Confidence > sa.config.Threshold {
		return mapped, nil
	}
	return Neutral, nil
}

// AnalyzeBatch classifies texts in order. Chunking only drives progress
// reporting and logging; results do not depend on BatchSize.
func (sa *SentimentAdapter) AnalyzeBatch(ctx context.Context, texts []string) ([]SentimentRecord, error) {
	records := make([]SentimentRecord, 0, len(texts))
	size := sa.config.BatchSize

	for start := 0; start < len(texts); start += size {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := min(start+size, len(texts))
		began := time.Now()
		for _, text := range texts[start:end] {
			rec, err := sa.Analyze(ctx, text)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		sa.logger.Debug("Classified batch",
			zap.Int("done", end),
			zap.Int("total", len(texts)),
			zap.Duration("elapsed", time.Since(began)),
		)
		if sa.progress != nil {
			sa.progress(end, len(texts))
		}
	}

	return records, nil
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
