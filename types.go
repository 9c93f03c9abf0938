package reviewrisk

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	// ErrNoData signals that a run has nothing to work on: no input blocks,
	// an unreadable source, or no candidate blocks after quality scoring.
	// Callers are expected to abort the run cleanly when they see it.
	ErrNoData = errors.New("no data")

	// ErrClassifierUnavailable wraps every failure of the external sentiment
	// capability. It is fatal; there is no fallback label.
	ErrClassifierUnavailable = errors.New("sentiment classifier unavailable")

	// ErrInvalidInput wraps out-of-range values rejected at a stage boundary.
	ErrInvalidInput = errors.New("invalid input")
)

// Sentiment is one of the three labels of the fixed taxonomy.
type Sentiment string

const (
	Positive Sentiment = "POSITIVE"
	Negative Sentiment = "NEGATIVE"
	Neutral  Sentiment = "NEUTRAL"
)

// Sentiments lists the labels in the order groups are processed and emitted.
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// Valid reports whether s is one of the three labels.
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// A RawBlock is a text fragment produced by the external extractor.
type RawBlock struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
	Source string `json:"source"`
}

// NewRawBlock creates a RawBlock whose Length is the rune count of text.
func NewRawBlock(text, source string) RawBlock {
	return RawBlock{Text: text, Length: utf8.RuneCountInString(text), Source: source}
}

// A ScoredBlock is a RawBlock with its quality verdict.
type ScoredBlock struct {
	RawBlock
	QualityScore float64 `json:"quality_score"`
	IsCandidate  bool    `json:"is_candidate"`
}

// A SentimentRecord is the adapter's output for one text. Confidence is the
// external score as received; Sentiment is the remapped label.
type SentimentRecord struct {
	Text       string    `json:"text"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	RawLabel   string    `json:"raw_label"`
}

// A ScoredSentimentRecord carries the intrinsic and per-class normalized
// scores. NormalizedScore is only meaningful once the whole group is known.
type ScoredSentimentRecord struct {
	SentimentRecord
	OriginalScore   float64 `json:"original_score"`
	NormalizedScore float64 `json:"normalized_score"`
	VisitDate       string  `json:"visit_date,omitempty"` // YYYY-MM-DD, empty when absent
}

// HasVisitDate reports whether a visit date was resolved for the record.
func (r ScoredSentimentRecord) HasVisitDate() bool {
	return r.VisitDate != ""
}

// A Cluster groups record indices during representative selection.
type Cluster struct {
	ID       int
	Members  []int // Indices into the clustered records
	Centroid []float64

	rows [][]float64 // Member vectors, parallel to Members
}

// A Representative stands in for one theme of a sentiment class.
type Representative struct {
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	ClusterID   int     `json:"cluster_id"`
	ClusterSize int     `json:"cluster_size"`
}

// A TrendBucket holds the sentiment counts of one calendar date.
type TrendBucket struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Total    int    `json:"total"`
}

// RiskLevel categorizes a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
	RiskUnknown  RiskLevel = "Unknown" // zero samples
)

// checkUnit returns an ErrInvalidInput error unless v is a finite value in [0,1].
func checkUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s %v outside [0,1]", ErrInvalidInput, name, v)
	}
	return nil
}

// clamp01 bounds v to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
