package reviewrisk

import (
	"fmt"
	"strings"
)

// NormalizerConfig configures the intrinsic score.
type NormalizerConfig struct {
	SentenceLengthThreshold int            `yaml:"sentence_length_threshold"` // Word count at or below which the score is 0
	WordWeight              float64        `yaml:"word_weight"`               // Per word above the threshold
	KeywordWeight           float64        `yaml:"keyword_weight"`            // Per distinct keyword found
	Keywords                KeywordLexicon `yaml:"keywords"`
}

// DefaultNormalizerConfig returns standard configuration.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		SentenceLengthThreshold: 10,
		WordWeight:              0.05,
		KeywordWeight:           0.1,
		Keywords:                DefaultKeywordLexicon(),
	}
}

// Validate checks the configuration.
func (c NormalizerConfig) Validate() error {
	if c.SentenceLengthThreshold < 0 {
		return fmt.Errorf("%w: sentence length threshold %d", ErrInvalidInput, c.SentenceLengthThreshold)
	}
	if c.WordWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("%w: negative normalizer weight", ErrInvalidInput)
	}
	return nil
}

// ScoreNormalizer computes intrinsic scores and rescales them per sentiment.
type ScoreNormalizer struct {
	config   NormalizerConfig
	keywords map[Sentiment][]string
}

// NewScoreNormalizer creates a normalizer.
func NewScoreNormalizer(config NormalizerConfig) (*ScoreNormalizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	keywords := make(map[Sentiment][]string, len(Sentiments))
	for _, s := range Sentiments {
		keywords[s] = cleanKeywords(config.Keywords.For(s))
	}
	return &ScoreNormalizer{config: config, keywords: keywords}, nil
}

// IntrinsicScore rewards word count above the threshold and the presence of
// keywords of the record's own sentiment.
func (n *ScoreNormalizer) IntrinsicScore(text string, sentiment Sentiment) float64 {
	count := wordCount(text)
	if count <= n.config.SentenceLengthThreshold {
		return 0
	}

	lower := strings.ToLower(text)
	found := 0
	for _, k := range n.keywords[sentiment] {
		if strings.Contains(lower, k) {
			found++
		}
	}

	return float64(count-n.config.SentenceLengthThreshold)*n.config.WordWeight +
		float64(found)*n.config.KeywordWeight
}

// Normalize scores every record and rescales the scores within each
// sentiment group. Output holds the POSITIVE group, then NEGATIVE, then
// NEUTRAL, each in input order. Empty groups emit nothing.
func (n *ScoreNormalizer) Normalize(records []SentimentRecord) ([]ScoredSentimentRecord, error) {
	groups := make(map[Sentiment][]SentimentRecord, len(Sentiments))
	for _, r := range records {
		if !r.Sentiment.Valid() {
			return nil, fmt.Errorf("%w: sentiment %q", ErrInvalidInput, r.Sentiment)
		}
		groups[r.Sentiment] = append(groups[r.Sentiment], r)
	}

	out := make([]ScoredSentimentRecord, 0, len(records))
	for _, s := range Sentiments {
		out = append(out, n.NormalizeGroup(groups[s])...)
	}
	return out, nil
}

// NormalizeGroup scores and min-max rescales one sentiment class. When every
// score is equal, including a single record, each normalized score is 0.5.
func (n *ScoreNormalizer) NormalizeGroup(group []SentimentRecord) []ScoredSentimentRecord {
	if len(group) == 0 {
		return nil
	}

	scored := make([]ScoredSentimentRecord, len(group))
	lo, hi := 0.0, 0.0
	for i, r := range group {
		score := n.IntrinsicScore(r.Text, r.Sentiment)
		scored[i] = ScoredSentimentRecord{SentimentRecord: r, OriginalScore: score}
		if i == 0 || score < lo {
			lo = score
		}
		if i == 0 || score > hi {
			hi = score
		}
	}

	for i := range scored {
		if hi > lo {
			scored[i].NormalizedScore = (scored[i].OriginalScore - lo) / (hi - lo)
		} else {
			scored[i].NormalizedScore = 0.5
		}
	}
	return scored
}
