package reviewrisk

import (
	"fmt"
	"math"
)

// RiskConfig holds the business tuning of the risk model. All values are
// overridable; DefaultRiskConfig returns the calibrated set.
type RiskConfig struct {
	BaseRate float64 `yaml:"base_rate"`

	// Sentiment multiplier
	NegativeWeight         float64 `yaml:"negative_weight"`
	NeutralWeight          float64 `yaml:"neutral_weight"`
	StrongPositiveRatio    float64 `yaml:"strong_positive_ratio"`
	StrongPositiveDiscount float64 `yaml:"strong_positive_discount"`
	PositiveRatio          float64 `yaml:"positive_ratio"`
	PositiveDiscount       float64 `yaml:"positive_discount"`

	// Confidence multiplier
	ConfidenceBase     float64 `yaml:"confidence_base"`
	ConfidenceSlope    float64 `yaml:"confidence_slope"`
	ConfidenceStdLimit float64 `yaml:"confidence_std_limit"`
	ConfidenceStdScale float64 `yaml:"confidence_std_scale"`

	// Sample multiplier
	SmallSampleSize        int     `yaml:"small_sample_size"`
	SmallSampleMultiplier  float64 `yaml:"small_sample_multiplier"`
	MediumSampleSize       int     `yaml:"medium_sample_size"`
	MediumSampleMultiplier float64 `yaml:"medium_sample_multiplier"`

	// Trend multiplier
	MinTrendBuckets     int     `yaml:"min_trend_buckets"`
	TrendWindow         int     `yaml:"trend_window"`
	SurgeRatio          float64 `yaml:"surge_ratio"`
	SurgeMultiplier     float64 `yaml:"surge_multiplier"`
	RiseRatio           float64 `yaml:"rise_ratio"`
	RiseMultiplier      float64 `yaml:"rise_multiplier"`
	DeclineRatio        float64 `yaml:"decline_ratio"`
	DeclineMultiplier   float64 `yaml:"decline_multiplier"`
	RecentBuckets       int     `yaml:"recent_buckets"`
	RecentNegativeRatio float64 `yaml:"recent_negative_ratio"`
	RecentMultiplier    float64 `yaml:"recent_multiplier"`

	// Risk score
	NegativeScoreWeight   float64 `yaml:"negative_score_weight"`
	PositiveScoreFloor    float64 `yaml:"positive_score_floor"`
	PositiveScoreWeight   float64 `yaml:"positive_score_weight"`
	ConfidenceScoreFloor  float64 `yaml:"confidence_score_floor"`
	ConfidenceScoreWeight float64 `yaml:"confidence_score_weight"`
	SampleScoreFloor      int     `yaml:"sample_score_floor"`
	SampleScoreDivisor    float64 `yaml:"sample_score_divisor"`
	TrendScoreWeight      float64 `yaml:"trend_score_weight"`

	CriticalScore int `yaml:"critical_score"`
	HighScore     int `yaml:"high_score"`
	MediumScore   int `yaml:"medium_score"`
}

// DefaultRiskConfig returns the calibrated tuning.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		BaseRate: 5000,

		NegativeWeight:         2.5,
		NeutralWeight:          0.5,
		StrongPositiveRatio:    0.85,
		StrongPositiveDiscount: 0.85,
		PositiveRatio:          0.75,
		PositiveDiscount:       0.95,

		ConfidenceBase:     1.5,
		ConfidenceSlope:    0.5,
		ConfidenceStdLimit: 0.2,
		ConfidenceStdScale: 1.1,

		SmallSampleSize:        50,
		SmallSampleMultiplier:  1.3,
		MediumSampleSize:       100,
		MediumSampleMultiplier: 1.15,

		MinTrendBuckets:     7,
		TrendWindow:         14,
		SurgeRatio:          1.5,
		SurgeMultiplier:     1.4,
		RiseRatio:           1.2,
		RiseMultiplier:      1.2,
		DeclineRatio:        0.7,
		DeclineMultiplier:   0.9,
		RecentBuckets:       3,
		RecentNegativeRatio: 0.3,
		RecentMultiplier:    1.3,

		NegativeScoreWeight:   200,
		PositiveScoreFloor:    0.6,
		PositiveScoreWeight:   50,
		ConfidenceScoreFloor:  0.9,
		ConfidenceScoreWeight: 100,
		SampleScoreFloor:      100,
		SampleScoreDivisor:    10,
		TrendScoreWeight:      25,

		CriticalScore: 70,
		HighScore:     50,
		MediumScore:   30,
	}
}

// Validate checks the configuration.
func (c RiskConfig) Validate() error {
	if math.IsNaN(c.BaseRate) || math.IsInf(c.BaseRate, 0) || c.BaseRate < 0 {
		return fmt.Errorf("%w: base rate %v", ErrInvalidInput, c.BaseRate)
	}
	if c.MinTrendBuckets < 1 || c.TrendWindow < 1 || c.RecentBuckets < 1 {
		return fmt.Errorf("%w: trend windows must be positive", ErrInvalidInput)
	}
	if c.SampleScoreDivisor <= 0 {
		return fmt.Errorf("%w: sample score divisor %v", ErrInvalidInput, c.SampleScoreDivisor)
	}
	if !(c.MediumScore <= c.HighScore && c.HighScore <= c.CriticalScore) {
		return fmt.Errorf("%w: level thresholds %d/%d/%d", ErrInvalidInput, c.MediumScore, c.HighScore, c.CriticalScore)
	}
	return nil
}

// RiskInput is everything the model reads.
type RiskInput struct {
	Distribution Distribution
	Confidence   ConfidenceStats
	TotalSamples int
	Trends       []TrendBucket // Ascending by date
}

// Validate rejects inconsistent or out-of-range inputs.
func (in RiskInput) Validate() error {
	d := in.Distribution
	if in.TotalSamples < 0 || d.Positive < 0 || d.Negative < 0 || d.Neutral < 0 {
		return fmt.Errorf("%w: negative sample count", ErrInvalidInput)
	}
	if d.Total() != in.TotalSamples {
		return fmt.Errorf("%w: distribution sums to %d, total samples %d", ErrInvalidInput, d.Total(), in.TotalSamples)
	}
	if err := in.Confidence.Validate(); err != nil {
		return err
	}
	for _, b := range in.Trends {
		if b.Positive < 0 || b.Negative < 0 || b.Neutral < 0 || b.Positive+b.Negative+b.Neutral != b.Total {
			return fmt.Errorf("%w: trend bucket %s", ErrInvalidInput, b.Date)
		}
	}
	return nil
}

// RiskAssessment is the content of insurance_risk.json.
type RiskAssessment struct {
	Cost      float64       `json:"insurance_cost"`
	Level     RiskLevel     `json:"risk_level"`
	Score     int           `json:"risk_score"`
	Breakdown RiskBreakdown `json:"breakdown"`
}

// RiskBreakdown surfaces every factor, rounded to two decimals. Factor
// groups are absent for the zero-sample assessment.
type RiskBreakdown struct {
	BaseRate          float64            `json:"base_rate"`
	SentimentFactors  *SentimentFactors  `json:"sentiment_factors,omitempty"`
	ConfidenceFactors *ConfidenceFactors `json:"confidence_factors,omitempty"`
	SampleFactors     *SampleFactors     `json:"sample_factors,omitempty"`
	TrendFactors      *TrendFactors      `json:"trend_factors,omitempty"`
	ScoreComponents   *ScoreComponents   `json:"score_components,omitempty"`
}

// SentimentFactors explain the sentiment multiplier.
type SentimentFactors struct {
	PositiveRatio  float64 `json:"positive_ratio"`
	NegativeRatio  float64 `json:"negative_ratio"`
	NeutralRatio   float64 `json:"neutral_ratio"`
	BaseMultiplier float64 `json:"base_multiplier"`
	Discount       float64 `json:"discount"`
	Multiplier     float64 `json:"multiplier"`
}

// ConfidenceFactors explain the confidence multiplier.
type ConfidenceFactors struct {
	MeanConfidence float64 `json:"mean_confidence"`
	ConfidenceStd  float64 `json:"confidence_std"`
	StdPenalty     float64 `json:"std_penalty"`
	Multiplier     float64 `json:"multiplier"`
}

// SampleFactors explain the sample multiplier.
type SampleFactors struct {
	TotalSamples int     `json:"total_samples"`
	Multiplier   float64 `json:"multiplier"`
}

// TrendMethod names how the trend multiplier was derived.
type TrendMethod string

const (
	TrendInsufficient TrendMethod = "insufficient_history"
	TrendWindows      TrendMethod = "window_comparison"
	TrendRecent       TrendMethod = "recent_buckets"
)

// TrendFactors explain the trend multiplier.
type TrendFactors struct {
	Buckets             int         `json:"buckets"`
	Method              TrendMethod `json:"method"`
	RecentNegativeRatio float64     `json:"recent_negative_ratio"`
	PriorNegativeRatio  float64     `json:"prior_negative_ratio"`
	RatioChange         float64     `json:"ratio_change"`
	Multiplier          float64     `json:"multiplier"`
}

// ScoreComponents are the additive terms of the risk score before clamping.
type ScoreComponents struct {
	Negative   float64 `json:"negative"`
	Positive   float64 `json:"positive"`
	Confidence float64 `json:"confidence"`
	Sample     float64 `json:"sample"`
	Trend      float64 `json:"trend"`
	Raw        float64 `json:"raw"`
}

// RiskModel turns run aggregates into a cost, score and level.
type RiskModel struct {
	config RiskConfig
}

// NewRiskModel creates a model.
func NewRiskModel(config RiskConfig) (*RiskModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RiskModel{config: config}, nil
}

// Assess computes the risk of one run. Zero samples short-circuit to the
// base rate with an Unknown level and a neutral score of 50.
func (rm *RiskModel) Assess(in RiskInput) (RiskAssessment, error) {
	c := rm.config
	if in.TotalSamples == 0 && in.Distribution.Total() == 0 {
		return RiskAssessment{
			Cost:      round2(c.BaseRate),
			Level:     RiskUnknown,
			Score:     50,
			Breakdown: RiskBreakdown{BaseRate: round2(c.BaseRate)},
		}, nil
	}
	if err := in.Validate(); err != nil {
		return RiskAssessment{}, err
	}

	sf := rm.sentimentFactors(in)
	cf := rm.confidenceFactors(in.Confidence)
	pf := rm.sampleFactors(in.TotalSamples)
	tf := rm.trendFactors(in.Trends)

	cost := c.BaseRate * sf.Multiplier * cf.Multiplier * pf.Multiplier * tf.Multiplier
	sc := rm.scoreComponents(sf, in, tf)
	score := int(math.Max(0, math.Min(100, sc.Raw)))

	return RiskAssessment{
		Cost:  round2(cost),
		Level: rm.level(score),
		Score: score,
		Breakdown: RiskBreakdown{
			BaseRate:          round2(c.BaseRate),
			SentimentFactors:  sf.rounded(),
			ConfidenceFactors: cf.rounded(),
			SampleFactors:     pf.rounded(),
			TrendFactors:      tf.rounded(),
			ScoreComponents:   sc.rounded(),
		},
	}, nil
}

func (rm *RiskModel) sentimentFactors(in RiskInput) SentimentFactors {
	c := rm.config
	total := float64(in.TotalSamples)
	f := SentimentFactors{
		PositiveRatio: float64(in.Distribution.Positive) / total,
		NegativeRatio: float64(in.Distribution.Negative) / total,
		NeutralRatio:  float64(in.Distribution.Neutral) / total,
		Discount:      1,
	}
	f.BaseMultiplier = 1 + f.NegativeRatio*c.NegativeWeight + f.NeutralRatio*c.NeutralWeight

	switch {
	case f.PositiveRatio > c.StrongPositiveRatio:
		f.Discount = c.StrongPositiveDiscount
	case f.PositiveRatio > c.PositiveRatio:
		f.Discount = c.PositiveDiscount
	}
	f.Multiplier = f.BaseMultiplier * f.Discount
	return f
}

func (rm *RiskModel) confidenceFactors(cs ConfidenceStats) ConfidenceFactors {
	c := rm.config
	f := ConfidenceFactors{
		MeanConfidence: cs.Mean,
		ConfidenceStd:  cs.Std,
		StdPenalty:     1,
	}
	if cs.Std > c.ConfidenceStdLimit {
		f.StdPenalty = c.ConfidenceStdScale
	}
	f.Multiplier = (c.ConfidenceBase - cs.Mean*c.ConfidenceSlope) * f.StdPenalty
	return f
}

func (rm *RiskModel) sampleFactors(total int) SampleFactors {
	c := rm.config
	f := SampleFactors{TotalSamples: total, Multiplier: 1}
	switch {
	case total < c.SmallSampleSize:
		f.Multiplier = c.SmallSampleMultiplier
	case total < c.MediumSampleSize:
		f.Multiplier = c.MediumSampleMultiplier
	}
	return f
}

// trendFactors compares the negative ratio of the latest window with the
// window before it. Without an earlier window only the last few buckets are
// checked.
func (rm *RiskModel) trendFactors(trends []TrendBucket) TrendFactors {
	c := rm.config
	n := len(trends)
	f := TrendFactors{Buckets: n, Method: TrendInsufficient, Multiplier: 1}
	if n < c.MinTrendBuckets {
		return f
	}

	recentStart := max(0, n-c.TrendWindow)
	recent := trends[recentStart:]
	prior := trends[max(0, recentStart-c.TrendWindow):recentStart]

	if len(prior) == 0 {
		f.Method = TrendRecent
		f.RecentNegativeRatio = negativeRatio(trends[max(0, n-c.RecentBuckets):])
		if f.RecentNegativeRatio > c.RecentNegativeRatio {
			f.Multiplier = c.RecentMultiplier
		}
		return f
	}

	f.Method = TrendWindows
	f.RecentNegativeRatio = negativeRatio(recent)
	f.PriorNegativeRatio = negativeRatio(prior)

	switch {
	case f.PriorNegativeRatio > 0:
		f.RatioChange = f.RecentNegativeRatio / f.PriorNegativeRatio
	case f.RecentNegativeRatio > 0:
		// Negatives appearing from none count as a surge.
		f.RatioChange = c.SurgeRatio + 1
	default:
		f.RatioChange = 1
	}

	switch {
	case f.RatioChange > c.SurgeRatio:
		f.Multiplier = c.SurgeMultiplier
	case f.RatioChange > c.RiseRatio:
		f.Multiplier = c.RiseMultiplier
	case f.RatioChange < c.DeclineRatio:
		f.Multiplier = c.DeclineMultiplier
	}
	return f
}

func negativeRatio(buckets []TrendBucket) float64 {
	neg, total := 0, 0
	for _, b := range buckets {
		neg += b.Negative
		total += b.Total
	}
	if total == 0 {
		return 0
	}
	return float64(neg) / float64(total)
}

func (rm *RiskModel) scoreComponents(sf SentimentFactors, in RiskInput, tf TrendFactors) ScoreComponents {
	c := rm.config
	sc := ScoreComponents{
		Negative:   sf.NegativeRatio * c.NegativeScoreWeight,
		Positive:   math.Max(0, c.PositiveScoreFloor-sf.PositiveRatio) * c.PositiveScoreWeight,
		Confidence: math.Max(0, c.ConfidenceScoreFloor-in.Confidence.Mean) * c.ConfidenceScoreWeight,
		Sample:     float64(max(0, c.SampleScoreFloor-in.TotalSamples)) / c.SampleScoreDivisor,
		Trend:      math.Max(0, tf.Multiplier-1) * c.TrendScoreWeight,
	}
	sc.Raw = sc.Negative + sc.Positive + sc.Confidence + sc.Sample + sc.Trend
	return sc
}

func (rm *RiskModel) level(score int) RiskLevel {
	switch {
	case score >= rm.config.CriticalScore:
		return RiskCritical
	case score >= rm.config.HighScore:
		return RiskHigh
	case score >= rm.config.MediumScore:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (f SentimentFactors) rounded() *SentimentFactors {
	return &SentimentFactors{
		PositiveRatio:  round2(f.PositiveRatio),
		NegativeRatio:  round2(f.NegativeRatio),
		NeutralRatio:   round2(f.NeutralRatio),
		BaseMultiplier: round2(f.BaseMultiplier),
		Discount:       round2(f.Discount),
		Multiplier:     round2(f.Multiplier),
	}
}

func (f ConfidenceFactors) rounded() *ConfidenceFactors {
	return &ConfidenceFactors{
		MeanConfidence: round2(f.MeanConfidence),
		ConfidenceStd:  round2(f.ConfidenceStd),
		StdPenalty:     round2(f.StdPenalty),
		Multiplier:     round2(f.Multiplier),
	}
}

func (f SampleFactors) rounded() *SampleFactors {
	return &SampleFactors{TotalSamples: f.TotalSamples, Multiplier: round2(f.Multiplier)}
}

func (f TrendFactors) rounded() *TrendFactors {
	return &TrendFactors{
		Buckets:             f.Buckets,
		Method:              f.Method,
		RecentNegativeRatio: round2(f.RecentNegativeRatio),
		PriorNegativeRatio:  round2(f.PriorNegativeRatio),
		RatioChange:         round2(f.RatioChange),
		Multiplier:          round2(f.Multiplier),
	}
}

func (sc ScoreComponents) rounded() *ScoreComponents {
	return &ScoreComponents{
		Negative:   round2(sc.Negative),
		Positive:   round2(sc.Positive),
		Confidence: round2(sc.Confidence),
		Sample:     round2(sc.Sample),
		Trend:      round2(sc.Trend),
		Raw:        round2(sc.Raw),
	}
}
