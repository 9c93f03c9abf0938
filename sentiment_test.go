package reviewrisk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

// fixedClassifier answers every text with the same classification.
type fixedClassifier struct {
	result Classification
	err    error
	seen   []string
}

func (fc *fixedClassifier) Classify(_ context.Context, text string) (Classification, error) {
	fc.seen = append(fc.seen, text)
	return fc.result, fc.err
}

// funcClassifier adapts a function to the Classifier interface.
type funcClassifier func(text string) (Classification, error)

func (f funcClassifier) Classify(_ context.Context, text string) (Classification, error) {
	return f(text)
}

func TestSentimentAdapterRemap(t *testing.T) {
	tests := []struct {
		label      string
		confidence float64
		mode       ClassifierMode
		expected   Sentiment
		desc       string
	}{
		{"POSITIVE", 0.95, BinaryMode, Positive, "Confident positive"},
		{"NEGATIVE", 0.81, BinaryMode, Negative, "Just above threshold"},
		{"NEGATIVE", 0.8, BinaryMode, Neutral, "At threshold is neutral"},
		{"POSITIVE", 0.3, BinaryMode, Neutral, "Weak positive is neutral"},
		{"LABEL_1", 0.99, BinaryMode, Positive, "Model label spelling"},
		{"label_0", 0.99, BinaryMode, Negative, "Lower-case model label"},
		{" Negative ", 0.9, BinaryMode, Negative, "Padded label"},
		{"NEUTRAL", 0.99, BinaryMode, Neutral, "Explicit neutral"},
		{"NEGATIVE", 0.3, TernaryMode, Negative, "Ternary keeps weak labels"},
		{"NEUTRAL", 0.3, TernaryMode, Neutral, "Ternary neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			config := DefaultSentimentConfig()
			config.Mode = tt.mode
			adapter, err := NewSentimentAdapter(&fixedClassifier{}, config)
			if err != nil {
				t.Fatalf("NewSentimentAdapter failed: %v", err)
			}

			got, err := adapter.Remap(Classification{Label: tt.label, Confidence: tt.confidence})
			if err != nil {
				t.Fatalf("Remap failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Label %q at %.2f: expected %s, got %s", tt.label, tt.confidence, tt.expected, got)
			}
		})
	}
}

func TestSentimentAdapterAnalyze(t *testing.T) {
	fc := &fixedClassifier{result: Classification{Label: "POSITIVE", Confidence: 0.97}}
	adapter, err := NewSentimentAdapter(fc, DefaultSentimentConfig())
	if err != nil {
		t.Fatal(err)
	}

	text := "Great   breakfast,\n\tlovely staff."
	rec, err := adapter.Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec.Text != text {
		t.Errorf("record should keep the original text, got %q", rec.Text)
	}
	if rec.Sentiment != Positive || rec.RawLabel != "POSITIVE" || rec.Confidence != 0.97 {
		t.Errorf("unexpected record %+v", rec)
	}
	if fc.seen[0] != "Great breakfast, lovely staff." {
		t.Errorf("classifier should see folded whitespace, got %q", fc.seen[0])
	}
}

func TestSentimentAdapterTruncates(t *testing.T) {
	fc := &fixedClassifier{result: Classification{Label: "POSITIVE", Confidence: 0.9}}
	config := DefaultSentimentConfig()
	config.MaxInputLength = 5

	adapter, err := NewSentimentAdapter(fc, config)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := adapter.Analyze(context.Background(), "héllo wörld"); err != nil {
		t.Fatal(err)
	}
	if fc.seen[0] != "héllo" {
		t.Errorf("expected the first five runes, got %q", fc.seen[0])
	}
}

func TestSentimentAdapterErrors(t *testing.T) {
	if _, err := NewSentimentAdapter(nil, DefaultSentimentConfig()); !errors.Is(err, ErrClassifierUnavailable) {
		t.Errorf("nil classifier: expected ErrClassifierUnavailable, got %v", err)
	}

	bad := DefaultSentimentConfig()
	bad.Threshold = 1.2
	if _, err := NewSentimentAdapter(&fixedClassifier{}, bad); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("threshold 1.2: expected ErrInvalidInput, got %v", err)
	}

	bad = DefaultSentimentConfig()
	bad.Labels = map[string]Sentiment{"good": "GREAT"}
	if _, err := NewSentimentAdapter(&fixedClassifier{}, bad); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad label table: expected ErrInvalidInput, got %v", err)
	}

	tests := []struct {
		classifier *fixedClassifier
		target     error
		desc       string
	}{
		{&fixedClassifier{err: errors.New("timeout")}, ErrClassifierUnavailable, "Classifier failure"},
		{&fixedClassifier{result: Classification{Label: "MIXED", Confidence: 0.9}}, ErrInvalidInput, "Unknown label"},
		{&fixedClassifier{result: Classification{Label: "POSITIVE", Confidence: 1.2}}, ErrInvalidInput, "Confidence above one"},
		{&fixedClassifier{result: Classification{Label: "POSITIVE", Confidence: math.NaN()}}, ErrInvalidInput, "NaN confidence"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			adapter, err := NewSentimentAdapter(tt.classifier, DefaultSentimentConfig())
			if err != nil {
				t.Fatal(err)
			}
			if _, err := adapter.Analyze(context.Background(), "some text"); !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestAnalyzeBatch(t *testing.T) {
	classifier := funcClassifier(func(text string) (Classification, error) {
		if text == "bad" {
			return Classification{Label: "NEGATIVE", Confidence: 0.99}, nil
		}
		return Classification{Label: "POSITIVE", Confidence: 0.99}, nil
	})

	config := DefaultSentimentConfig()
	config.BatchSize = 2

	var progress []string
	adapter, err := NewSentimentAdapter(classifier, config, UsingBatchProgress(func(done, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", done, total))
	}))
	if err != nil {
		t.Fatal(err)
	}

	texts := []string{"good", "bad", "good", "bad", "good"}
	records, err := adapter.AnalyzeBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(records) != len(texts) {
		t.Fatalf("expected %d records, got %d", len(texts), len(records))
	}
	for i, rec := range records {
		if rec.Text != texts[i] {
			t.Errorf("record %d out of order: %q", i, rec.Text)
		}
	}
	if records[1].Sentiment != Negative || records[0].Sentiment != Positive {
		t.Errorf("unexpected sentiments %s, %s", records[0].Sentiment, records[1].Sentiment)
	}

	want := []string{"2/5", "4/5", "5/5"}
	if fmt.Sprint(progress) != fmt.Sprint(want) {
		t.Errorf("expected progress %v, got %v", want, progress)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := adapter.AnalyzeBatch(ctx, texts); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in       string
		n        int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 2, "he"},
		{"日本語テキスト", 3, "日本語"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.expected {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.expected)
		}
	}
}
