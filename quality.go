package reviewrisk

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ContentClassifier is an optional external capability that estimates how
// likely a text is genuine user-authored content.
type ContentClassifier interface {
	HumanLikelihood(ctx context.Context, text string) (float64, error)
}

// QualityConfig holds the coefficients of the quality heuristic.
type QualityConfig struct {
	MinLength          int     `yaml:"min_length"`          // Texts shorter than this (in runes) score 0
	CandidateThreshold float64 `yaml:"candidate_threshold"` // Minimum score of a candidate block

	// Coherence weights, applied in this order: sentence length, lexical
	// diversity, terminal punctuation, function words, markup.
	SentenceLengthWeight float64 `yaml:"sentence_length_weight"`
	DiversityWeight      float64 `yaml:"diversity_weight"`
	PunctuationWeight    float64 `yaml:"punctuation_weight"`
	FunctionWordWeight   float64 `yaml:"function_word_weight"`
	MarkupWeight         float64 `yaml:"markup_weight"`

	IdealSentenceMin   float64 `yaml:"ideal_sentence_min"` // Mean words per sentence with no penalty
	IdealSentenceMax   float64 `yaml:"ideal_sentence_max"`
	FunctionWordTarget float64 `yaml:"function_word_target"` // Function-word ratio that earns the full sub-score
	MarkupSaturation   int     `yaml:"markup_saturation"`    // Matched patterns that give the full penalty

	ExternalWeight float64 `yaml:"external_weight"` // Share of the external score when a ContentClassifier is set

	LengthRampStart int     `yaml:"length_ramp_start"` // Runes below which there is no length bonus
	LengthRampEnd   int     `yaml:"length_ramp_end"`   // Runes at which the bonus reaches LengthBonusMax
	LengthBonusMax  float64 `yaml:"length_bonus_max"`
	PronounBonus    float64 `yaml:"pronoun_bonus"` // Per first-person pronoun
	PronounBonusMax float64 `yaml:"pronoun_bonus_max"`
	NameBonus       float64 `yaml:"name_bonus"`   // Capitalized-name opening
	RatingBonus     float64 `yaml:"rating_bonus"` // Rating pattern such as "4/5"
}

// DefaultQualityConfig returns the standard tuning.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MinLength:            20,
		CandidateThreshold:   0.65,
		SentenceLengthWeight: 0.2,
		DiversityWeight:      0.3,
		PunctuationWeight:    0.2,
		FunctionWordWeight:   0.2,
		MarkupWeight:         0.1,
		IdealSentenceMin:     5,
		IdealSentenceMax:     25,
		FunctionWordTarget:   0.25,
		MarkupSaturation:     3,
		ExternalWeight:       0.4,
		LengthRampStart:      25,
		LengthRampEnd:        800,
		LengthBonusMax:       0.7,
		PronounBonus:         0.05,
		PronounBonusMax:      0.15,
		NameBonus:            0.15,
		RatingBonus:          0.2,
	}
}

// Validate rejects configurations that cannot produce scores in [0,1].
func (c QualityConfig) Validate() error {
	if c.MinLength < 0 {
		return fmt.Errorf("%w: min length %d", ErrInvalidInput, c.MinLength)
	}
	for name, v := range map[string]float64{
		"candidate threshold":    c.CandidateThreshold,
		"sentence length weight": c.SentenceLengthWeight,
		"diversity weight":       c.DiversityWeight,
		"punctuation weight":     c.PunctuationWeight,
		"function word weight":   c.FunctionWordWeight,
		"markup weight":          c.MarkupWeight,
		"external weight":        c.ExternalWeight,
		"length bonus max":       c.LengthBonusMax,
		"pronoun bonus":          c.PronounBonus,
		"pronoun bonus max":      c.PronounBonusMax,
		"name bonus":             c.NameBonus,
		"rating bonus":           c.RatingBonus,
	} {
		if err := checkUnit(name, v); err != nil {
			return err
		}
	}
	if c.IdealSentenceMin <= 0 || c.IdealSentenceMax < c.IdealSentenceMin {
		return fmt.Errorf("%w: ideal sentence band [%v,%v]", ErrInvalidInput, c.IdealSentenceMin, c.IdealSentenceMax)
	}
	if c.FunctionWordTarget <= 0 {
		return fmt.Errorf("%w: function word target %v", ErrInvalidInput, c.FunctionWordTarget)
	}
	if c.MarkupSaturation < 1 {
		return fmt.Errorf("%w: markup saturation %d", ErrInvalidInput, c.MarkupSaturation)
	}
	if c.LengthRampStart < 0 || c.LengthRampEnd <= c.LengthRampStart {
		return fmt.Errorf("%w: length ramp [%d,%d]", ErrInvalidInput, c.LengthRampStart, c.LengthRampEnd)
	}
	return nil
}

// QualityOption configures a QualityScorer.
type QualityOption func(q *QualityScorer)

// UsingContentClassifier blends an external human-content score into the
// coherence score.
func UsingContentClassifier(c ContentClassifier) QualityOption {
	return func(q *QualityScorer) {
		q.content = c
	}
}

// UsingQualityLogger sets the logger.
func UsingQualityLogger(logger *zap.Logger) QualityOption {
	return func(q *QualityScorer) {
		q.logger = logger
	}
}

// QualityScorer decides which raw blocks look like genuine human writing.
type QualityScorer struct {
	config    QualityConfig
	segmenter *punktSegmenter
	content   ContentClassifier
	logger    *zap.Logger
}

// NewQualityScorer creates a scorer with the given configuration.
func NewQualityScorer(config QualityConfig, opts ...QualityOption) (*QualityScorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	segmenter, err := newPunktSegmenter()
	if err != nil {
		return nil, err
	}

	q := &QualityScorer{
		config:    config,
		segmenter: segmenter,
		logger:    zap.NewNop(),
	}
	for _, applyOpt := range opts {
		applyOpt(q)
	}
	return q, nil
}

// Score scores one block.
func (q *QualityScorer) Score(ctx context.Context, block RawBlock) (ScoredBlock, error) {
	select {
	case <-ctx.Done():
		return ScoredBlock{}, ctx.Err()
	default:
	}

	score := q.score(ctx, block.Text)
	return ScoredBlock{
		RawBlock:     block,
		QualityScore: score,
		IsCandidate:  score >= q.config.CandidateThreshold,
	}, nil
}

// ScoreAll scores every block, preserving order.
func (q *QualityScorer) ScoreAll(ctx context.Context, blocks []RawBlock) ([]ScoredBlock, error) {
	scored := make([]ScoredBlock, 0, len(blocks))
	for _, block := range blocks {
		sb, err := q.Score(ctx, block)
		if err != nil {
			return nil, err
		}
		scored = append(scored, sb)
	}
	return scored, nil
}

// Candidates filters the blocks that cleared the candidate threshold.
func Candidates(scored []ScoredBlock) []ScoredBlock {
	var out []ScoredBlock
	for _, sb := range scored {
		if sb.IsCandidate {
			out = append(out, sb)
		}
	}
	return out
}

func (q *QualityScorer) score(ctx context.Context, text string) float64 {
	length := utf8.RuneCountInString(text)
	if length < q.config.MinLength {
		return 0
	}

	toks := words(text)
	if len(toks) == 0 {
		return 0
	}

	coherence := q.coherence(text, toks)
	base := coherence
	if q.content != nil {
		external, err := q.content.HumanLikelihood(ctx, text)
		if err != nil {
			q.logger.Warn("Content classifier failed, using coherence only", zap.Error(err))
		} else {
			w := q.config.ExternalWeight
			base = w*clamp01(external) + (1-w)*coherence
		}
	}

	score := base +
		q.lengthBonus(length) +
		q.pronounBonus(toks) +
		q.structuralBonus(text)

	return clamp01(score)
}

// coherence combines the five linguistic sub-scores.
func (q *QualityScorer) coherence(text string, toks []string) float64 {
	c := q.config
	sents := q.segmenter.segment(text)

	return c.SentenceLengthWeight*q.sentenceLengthScore(sents) +
		c.DiversityWeight*lexicalDiversity(toks) +
		c.PunctuationWeight*terminalPunctuation(sents) +
		c.FunctionWordWeight*q.functionWordScore(toks) +
		c.MarkupWeight*(1-q.markupPenalty(text))
}

func (q *QualityScorer) sentenceLengthScore(sents []string) float64 {
	if len(sents) == 0 {
		return 0
	}
	total := 0
	for _, s := range sents {
		total += len(words(s))
	}
	mean := float64(total) / float64(len(sents))

	switch {
	case mean < q.config.IdealSentenceMin:
		return mean / q.config.IdealSentenceMin
	case mean > q.config.IdealSentenceMax:
		over := (mean - q.config.IdealSentenceMax) / q.config.IdealSentenceMax
		return clamp01(1 - over)
	default:
		return 1
	}
}

func lexicalDiversity(toks []string) float64 {
	if len(toks) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		unique[t] = struct{}{}
	}
	return float64(len(unique)) / float64(len(toks))
}

// terminalPunctuation is the fraction of sentences that end like prose.
func terminalPunctuation(sents []string) float64 {
	if len(sents) == 0 {
		return 0
	}
	ended := 0
	for _, s := range sents {
		s = strings.TrimRight(s, `"')]`)
		if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
			ended++
		}
	}
	return float64(ended) / float64(len(sents))
}

func (q *QualityScorer) functionWordScore(toks []string) float64 {
	n := 0
	for _, t := range toks {
		if functionWords[t] {
			n++
		}
	}
	ratio := float64(n) / float64(len(toks))
	return clamp01(ratio / q.config.FunctionWordTarget)
}

func (q *QualityScorer) markupPenalty(text string) float64 {
	return clamp01(float64(countMarkupMatches(text)) / float64(q.config.MarkupSaturation))
}

func (q *QualityScorer) lengthBonus(length int) float64 {
	c := q.config
	switch {
	case length < c.LengthRampStart:
		return 0
	case length >= c.LengthRampEnd:
		return c.LengthBonusMax
	default:
		span := float64(c.LengthRampEnd - c.LengthRampStart)
		return c.LengthBonusMax * float64(length-c.LengthRampStart) / span
	}
}

func (q *QualityScorer) pronounBonus(toks []string) float64 {
	n := 0
	for _, t := range toks {
		if isFirstPerson(t) {
			n++
		}
	}
	bonus := float64(n) * q.config.PronounBonus
	if bonus > q.config.PronounBonusMax {
		return q.config.PronounBonusMax
	}
	return bonus
}

func (q *QualityScorer) structuralBonus(text string) float64 {
	trimmed := strings.TrimSpace(text)
	bonus := 0.0
	if nameOpeningRE.MatchString(trimmed) {
		bonus += q.config.NameBonus
	}
	if ratingRE.MatchString(trimmed) {
		bonus += q.config.RatingBonus
	}
	return bonus
}
