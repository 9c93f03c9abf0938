package reviewrisk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution counts records per sentiment.
type Distribution struct {
	Positive int `json:"POSITIVE"`
	Negative int `json:"NEGATIVE"`
	Neutral  int `json:"NEUTRAL"`
}

// Total returns the number of counted records.
func (d Distribution) Total() int {
	return d.Positive + d.Negative + d.Neutral
}

// Count returns the count of one sentiment.
func (d Distribution) Count(s Sentiment) int {
	switch s {
	case Positive:
		return d.Positive
	case Negative:
		return d.Negative
	case Neutral:
		return d.Neutral
	}
	return 0
}

// ConfidenceStats describes the classifier confidences of a run. Std is the
// sample standard deviation, 0 for fewer than two records.
type ConfidenceStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Validate rejects non-finite or out-of-range statistics.
func (cs ConfidenceStats) Validate() error {
	for name, v := range map[string]float64{
		"mean confidence": cs.Mean,
		"confidence std":  cs.Std,
		"min confidence":  cs.Min,
		"max confidence":  cs.Max,
	} {
		if err := checkUnit(name, v); err != nil {
			return err
		}
	}
	if cs.Min > cs.Max {
		return fmt.Errorf("%w: min confidence %v above max %v", ErrInvalidInput, cs.Min, cs.Max)
	}
	return nil
}

// PerformanceSummary is the content of performance_summary.json.
type PerformanceSummary struct {
	TotalSamples          int             `json:"total_samples"`
	SentimentDistribution Distribution    `json:"sentiment_distribution"`
	ConfidenceStats       ConfidenceStats `json:"confidence_stats"`
}

// Summarize computes the distribution and confidence statistics of records.
func Summarize(records []SentimentRecord) (PerformanceSummary, error) {
	var summary PerformanceSummary
	if len(records) == 0 {
		return summary, nil
	}

	conf := make([]float64, len(records))
	for i, r := range records {
		switch r.Sentiment {
		case Positive:
			summary.SentimentDistribution.Positive++
		case Negative:
			summary.SentimentDistribution.Negative++
		case Neutral:
			summary.SentimentDistribution.Neutral++
		default:
			return PerformanceSummary{}, fmt.Errorf("%w: sentiment %q", ErrInvalidInput, r.Sentiment)
		}
		if err := checkUnit("confidence", r.Confidence); err != nil {
			return PerformanceSummary{}, err
		}
		conf[i] = r.Confidence
	}

	mean, std := stat.MeanStdDev(conf, nil)
	if len(conf) < 2 || math.IsNaN(std) {
		std = 0
	}

	summary.TotalSamples = len(records)
	summary.ConfidenceStats = ConfidenceStats{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(conf),
		Max:  floats.Max(conf),
	}
	return summary, nil
}

// RiskInputFrom combines a performance summary and a trend report.
func RiskInputFrom(summary PerformanceSummary, trends TrendReport) RiskInput {
	return RiskInput{
		Distribution: summary.SentimentDistribution,
		Confidence:   summary.ConfidenceStats,
		TotalSamples: summary.TotalSamples,
		Trends:       trends.Trends,
	}
}
