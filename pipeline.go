package reviewrisk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// An Option changes how a Pipeline is built.
//
// For example, it might lower the candidate threshold:
//
//	cfg := reviewrisk.DefaultQualityConfig()
//	cfg.CandidateThreshold = 0.5
//	p, err := reviewrisk.NewPipeline(classifier, reviewrisk.WithQualityConfig(cfg))
type Option func(opts *Options)

// Options controls Pipeline construction.
type Options struct {
	Quality          QualityConfig
	Sentiment        SentimentConfig
	Normalizer       NormalizerConfig
	Cluster          ClusterConfig
	Risk             RiskConfig
	Content          ContentClassifier      // Optional human-content capability
	Vectorizer       Vectorizer             // Replaces TF-IDF when set
	Partitioner      Partitioner            // Replaces k-means when set
	Logger           *zap.Logger            // Defaults to a no-op logger
	Timeout          time.Duration          // Whole-run timeout, 0 for none
	ProgressCallback func(progress float64) // Called after each stage with a value in (0,1]
}

// DefaultOptions returns the standard configuration of every stage.
func DefaultOptions() Options {
	return Options{
		Quality:    DefaultQualityConfig(),
		Sentiment:  DefaultSentimentConfig(),
		Normalizer: DefaultNormalizerConfig(),
		Cluster:    DefaultClusterConfig(),
		Risk:       DefaultRiskConfig(),
		Logger:     zap.NewNop(),
	}
}

// WithLogger sets the logger used by every stage.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithQualityConfig sets the quality heuristic tuning.
func WithQualityConfig(cfg QualityConfig) Option {
	return func(opts *Options) {
		opts.Quality = cfg
	}
}

// WithContentClassifier blends an external human-content score into quality
// scoring.
func WithContentClassifier(c ContentClassifier) Option {
	return func(opts *Options) {
		opts.Content = c
	}
}

// WithSentimentConfig sets the sentiment adapter configuration.
func WithSentimentConfig(cfg SentimentConfig) Option {
	return func(opts *Options) {
		opts.Sentiment = cfg
	}
}

// WithNormalizerConfig sets the intrinsic score configuration.
func WithNormalizerConfig(cfg NormalizerConfig) Option {
	return func(opts *Options) {
		opts.Normalizer = cfg
	}
}

// WithClusterConfig sets the representative selection configuration.
func WithClusterConfig(cfg ClusterConfig) Option {
	return func(opts *Options) {
		opts.Cluster = cfg
	}
}

// WithVectorizer replaces the TF-IDF vectorizer.
func WithVectorizer(v Vectorizer) Option {
	return func(opts *Options) {
		opts.Vectorizer = v
	}
}

// WithPartitioner replaces k-means.
func WithPartitioner(p Partitioner) Option {
	return func(opts *Options) {
		opts.Partitioner = p
	}
}

// WithRiskConfig sets the risk model tuning.
func WithRiskConfig(cfg RiskConfig) Option {
	return func(opts *Options) {
		opts.Risk = cfg
	}
}

// WithTimeout bounds a whole run.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithProgressCallback sets a progress reporting callback.
func WithProgressCallback(callback func(float64)) Option {
	return func(opts *Options) {
		opts.ProgressCallback = callback
	}
}

// RunMetadata describes one run.
type RunMetadata struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	BlockCount       int       `json:"block_count"`
	CandidateCount   int       `json:"candidate_count"`
	DatedCount       int       `json:"dated_count"`
}

// A Result holds every collection a run produced.
type Result struct {
	Metadata        RunMetadata
	Scored          []ScoredBlock
	Candidates      []ScoredBlock
	Sentiments      []SentimentRecord
	Records         []ScoredSentimentRecord
	Representatives map[Sentiment][]Representative
	Trends          TrendReport
	Summary         PerformanceSummary
	Risk            RiskAssessment
}

// A Pipeline runs every stage over a batch of raw blocks.
type Pipeline struct {
	opts       Options
	quality    *QualityScorer
	sentiment  *SentimentAdapter
	normalizer *ScoreNormalizer
	clusterer  *RepresentativeClusterer
	risk       *RiskModel
}

// NewPipeline builds a Pipeline around a sentiment classifier.
//
// For example,
//
//	p, err := reviewrisk.NewPipeline(reviewrisk.NewLexiconClassifier(nil))
func NewPipeline(classifier Classifier, opts ...Option) (*Pipeline, error) {
	base := DefaultOptions()
	for _, applyOpt := range opts {
		applyOpt(&base)
	}
	if base.Logger == nil {
		base.Logger = zap.NewNop()
	}

	qualityOpts := []QualityOption{UsingQualityLogger(base.Logger)}
	if base.Content != nil {
		qualityOpts = append(qualityOpts, UsingContentClassifier(base.Content))
	}
	quality, err := NewQualityScorer(base.Quality, qualityOpts...)
	if err != nil {
		return nil, fmt.Errorf("quality scorer: %w", err)
	}

	sentiment, err := NewSentimentAdapter(classifier, base.Sentiment, UsingAdapterLogger(base.Logger))
	if err != nil {
		return nil, fmt.Errorf("sentiment adapter: %w", err)
	}

	normalizer, err := NewScoreNormalizer(base.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("score normalizer: %w", err)
	}

	clusterOpts := []ClusterOption{UsingClusterLogger(base.Logger)}
	if base.Vectorizer != nil {
		clusterOpts = append(clusterOpts, UsingVectorizer(base.Vectorizer))
	}
	if base.Partitioner != nil {
		clusterOpts = append(clusterOpts, UsingPartitioner(base.Partitioner))
	}
	clusterer, err := NewRepresentativeClusterer(base.Cluster, clusterOpts...)
	if err != nil {
		return nil, fmt.Errorf("clusterer: %w", err)
	}

	risk, err := NewRiskModel(base.Risk)
	if err != nil {
		return nil, fmt.Errorf("risk model: %w", err)
	}

	return &Pipeline{
		opts:       base,
		quality:    quality,
		sentiment:  sentiment,
		normalizer: normalizer,
		clusterer:  clusterer,
		risk:       risk,
	}, nil
}

// Run processes blocks through every stage. It returns an error wrapping
// ErrNoData when there are no blocks or no candidate survives quality
// scoring.
func (p *Pipeline) Run(ctx context.Context, blocks []RawBlock) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := p.opts.Logger.With(zap.String("run_id", runID))

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	reportProgress := func(v float64) {
		if p.opts.ProgressCallback != nil {
			p.opts.ProgressCallback(v)
		}
	}

	res := &Result{
		Metadata: RunMetadata{
			RunID:      runID,
			StartedAt:  startTime,
			BlockCount: len(blocks),
		},
	}

	if len(blocks) == 0 {
		logger.Warn("No input blocks")
		return nil, fmt.Errorf("%w: no input blocks", ErrNoData)
	}

	// Quality
	scored, err := p.quality.ScoreAll(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("quality scoring: %w", err)
	}
	res.Scored = scored
	res.Candidates = Candidates(scored)
	res.Metadata.CandidateCount = len(res.Candidates)
	logger.Debug("Scored blocks",
		zap.Int("blocks", len(scored)),
		zap.Int("candidates", len(res.Candidates)),
	)
	if len(res.Candidates) == 0 {
		logger.Warn("No candidate blocks after quality scoring", zap.Int("blocks", len(blocks)))
		return nil, fmt.Errorf("%w: no candidate blocks", ErrNoData)
	}
	reportProgress(0.2)

	// Sentiment
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	texts := make([]string, len(res.Candidates))
	for i, c := range res.Candidates {
		texts[i] = c.Text
	}
	res.Sentiments, err = p.sentiment.AnalyzeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis: %w", err)
	}
	reportProgress(0.4)

	// Normalization and visit dates
	records, err := p.normalizer.Normalize(res.Sentiments)
	if err != nil {
		return nil, fmt.Errorf("normalization: %w", err)
	}
	res.Records = AttachVisitDates(records)
	reportProgress(0.5)

	// Representatives
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	res.Representatives, err = p.clusterer.SelectAll(ctx, GroupBySentiment(res.Records))
	if err != nil {
		return nil, fmt.Errorf("representatives: %w", err)
	}
	reportProgress(0.7)

	// Trends
	ta := NewTrendAggregator()
	for _, r := range res.Records {
		if _, err := ta.Add(r); err != nil {
			return nil, fmt.Errorf("trends: %w", err)
		}
	}
	res.Trends = ta.Report()
	res.Metadata.DatedCount = res.Trends.Summary.TotalReviews
	logger.Debug("Aggregated trends",
		zap.Int("dates", res.Trends.Summary.TotalDates),
		zap.Int("undated", ta.Skipped()),
	)
	reportProgress(0.8)

	// Summary and risk
	res.Summary, err = Summarize(res.Sentiments)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	res.Risk, err = p.risk.Assess(RiskInputFrom(res.Summary, res.Trends))
	if err != nil {
		return nil, fmt.Errorf("risk assessment: %w", err)
	}
	reportProgress(1.0)

	res.Metadata.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	logger.Info("Run complete",
		zap.Int("blocks", len(blocks)),
		zap.Int("candidates", len(res.Candidates)),
		zap.String("risk_level", string(res.Risk.Level)),
		zap.Int("risk_score", res.Risk.Score),
		zap.Float64("insurance_cost", res.Risk.Cost),
		zap.Int64("processing_time_ms", res.Metadata.ProcessingTimeMs),
	)
	return res, nil
}

// Assess runs only the risk model over existing artifacts.
func (p *Pipeline) Assess(summary PerformanceSummary, trends TrendReport) (RiskAssessment, error) {
	return p.risk.Assess(RiskInputFrom(summary, trends))
}
