package reviewrisk

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	visitPhraseRE = regexp.MustCompile(`(?i)date of visit:\s*([a-z]+)\s+(\d{1,2}),\s*(\d{4})`)
	isoDateRE     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

// ExtractVisitDate finds a visit date in text as YYYY-MM-DD. The phrase
// "Date of visit: October 1, 2025" is tried first, then the first ISO date.
// Dates that do not exist on the calendar, such as February 31, are skipped.
func ExtractVisitDate(text string) (string, bool) {
	if m := visitPhraseRE.FindStringSubmatch(text); m != nil {
		if month, ok := months[strings.ToLower(m[1])]; ok {
			year, _ := strconv.Atoi(m[3])
			day, _ := strconv.Atoi(m[2])
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			if d.Day() == day && int(d.Month()) == month {
				return d.Format(time.DateOnly), true
			}
		}
	}
	for _, iso := range isoDateRE.FindAllString(text, -1) {
		if _, err := time.Parse(time.DateOnly, iso); err == nil {
			return iso, true
		}
	}
	return "", false
}

// DateRange spans the bucketed dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TrendSummary totals every bucketed record.
type TrendSummary struct {
	TotalDates    int       `json:"total_dates"`
	DateRange     DateRange `json:"date_range"`
	TotalReviews  int       `json:"total_reviews"`
	TotalPositive int       `json:"total_positive"`
	TotalNegative int       `json:"total_negative"`
	TotalNeutral  int       `json:"total_neutral"`
}

// TrendReport is the content of sentiment_trends.json.
type TrendReport struct {
	Trends  []TrendBucket `json:"trends"`
	Summary TrendSummary  `json:"summary"`
}

// TrendAggregator counts dated records per calendar date. Create one with
// NewTrendAggregator, Add records, then call Report.
type TrendAggregator struct {
	buckets map[string]*TrendBucket
	skipped int
}

// NewTrendAggregator returns an empty aggregator.
func NewTrendAggregator() *TrendAggregator {
	return &TrendAggregator{buckets: make(map[string]*TrendBucket)}
}

// Add counts one record. Records without a visit date are skipped and Add
// reports false.
func (ta *TrendAggregator) Add(r ScoredSentimentRecord) (bool, error) {
	if !r.HasVisitDate() {
		ta.skipped++
		return false, nil
	}
	if !r.Sentiment.Valid() {
		return false, fmt.Errorf("%w: sentiment %q", ErrInvalidInput, r.Sentiment)
	}

	b, ok := ta.buckets[r.VisitDate]
	if !ok {
		b = &TrendBucket{Date: r.VisitDate}
		ta.buckets[r.VisitDate] = b
	}
	switch r.Sentiment {
	case Positive:
		b.Positive++
	case Negative:
		b.Negative++
	case Neutral:
		b.Neutral++
	}
	b.Total++
	return true, nil
}

// Skipped returns how many undated records were seen.
func (ta *TrendAggregator) Skipped() int {
	return ta.skipped
}

// Report returns the buckets sorted by date with their summary.
func (ta *TrendAggregator) Report() TrendReport {
	trends := make([]TrendBucket, 0, len(ta.buckets))
	for _, b := range ta.buckets {
		trends = append(trends, *b)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })

	summary := TrendSummary{TotalDates: len(trends)}
	for _, b := range trends {
		summary.TotalReviews += b.Total
		summary.TotalPositive += b.Positive
		summary.TotalNegative += b.Negative
		summary.TotalNeutral += b.Neutral
	}
	if len(trends) > 0 {
		summary.DateRange = DateRange{Start: trends[0].Date, End: trends[len(trends)-1].Date}
	}
	return TrendReport{Trends: trends, Summary: summary}
}

// AggregateTrends buckets records in one pass.
func AggregateTrends(records []ScoredSentimentRecord) (TrendReport, error) {
	ta := NewTrendAggregator()
	for _, r := range records {
		if _, err := ta.Add(r); err != nil {
			return TrendReport{}, err
		}
	}
	return ta.Report(), nil
}

// AttachVisitDates fills VisitDate for every record whose text carries one.
func AttachVisitDates(records []ScoredSentimentRecord) []ScoredSentimentRecord {
	out := make([]ScoredSentimentRecord, len(records))
	for i, r := range records {
		if date, ok := ExtractVisitDate(r.Text); ok {
			r.VisitDate = date
		}
		out[i] = r
	}
	return out
}
