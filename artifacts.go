package reviewrisk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact file names.
const (
	TrendsFile        = "sentiment_trends.json"
	SummaryFile       = "performance_summary.json"
	RiskFile          = "insurance_risk.json"
	ScoredRecordsFile = "scored_records.json"
	RunMetadataFile   = "run.json"
)

// RepresentativesFile returns the representatives file name of a sentiment.
func RepresentativesFile(s Sentiment) string {
	return "representatives_" + strings.ToLower(string(s)) + ".json"
}

// WriteArtifacts saves the outputs of a run under dir, creating it if needed.
func WriteArtifacts(dir string, res *Result) error {
	if res == nil {
		return fmt.Errorf("%w: nil result", ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	files := map[string]any{
		TrendsFile:        res.Trends,
		SummaryFile:       res.Summary,
		RiskFile:          res.Risk,
		ScoredRecordsFile: nonNil(res.Records),
		RunMetadataFile:   res.Metadata,
	}
	for _, s := range Sentiments {
		files[RepresentativesFile(s)] = nonNil(res.Representatives[s])
	}

	for name, v := range files {
		if err := writeJSON(filepath.Join(dir, name), v); err != nil {
			return err
		}
	}
	return nil
}

// WriteRisk saves a standalone risk assessment under dir.
func WriteRisk(dir string, ra RiskAssessment) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, RiskFile), ra)
}

// ReadRawBlocks loads the extractor output, a JSON array of
// {"text", "source"} objects. Lengths are recomputed from the text. A
// missing, unreadable or malformed file yields an error wrapping ErrNoData.
func ReadRawBlocks(path string) ([]RawBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}

	var in []RawBlock
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrNoData, path, err)
	}

	blocks := make([]RawBlock, len(in))
	for i, b := range in {
		blocks[i] = NewRawBlock(b.Text, b.Source)
	}
	return blocks, nil
}

// ReadPerformanceSummary loads performance_summary.json.
func ReadPerformanceSummary(path string) (PerformanceSummary, error) {
	var ps PerformanceSummary
	if err := readJSON(path, &ps); err != nil {
		return PerformanceSummary{}, err
	}
	return ps, nil
}

// ReadTrendReport loads sentiment_trends.json.
func ReadTrendReport(path string) (TrendReport, error) {
	var tr TrendReport
	if err := readJSON(path, &tr); err != nil {
		return TrendReport{}, err
	}
	return tr, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoData, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
