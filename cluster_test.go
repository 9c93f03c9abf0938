package reviewrisk

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// stubVectorizer returns a fixed matrix.
type stubVectorizer struct {
	m   *mat.Dense
	err error
}

func (sv stubVectorizer) Vectorize([]string, VectorizerOptions) (*mat.Dense, error) {
	return sv.m, sv.err
}

// stubPartitioner returns fixed assignments and centroids.
type stubPartitioner struct {
	assign    []int
	centroids *mat.Dense
}

func (sp stubPartitioner) Partition(*mat.Dense, int, int64) ([]int, *mat.Dense, error) {
	return sp.assign, sp.centroids, nil
}

func recordsOf(sentiment Sentiment, texts ...string) []ScoredSentimentRecord {
	out := make([]ScoredSentimentRecord, len(texts))
	for i, text := range texts {
		out[i] = ScoredSentimentRecord{SentimentRecord: SentimentRecord{
			Text:       text,
			Sentiment:  sentiment,
			Confidence: 0.9,
		}}
	}
	return out
}

func newTestClusterer(t *testing.T, k int, opts ...ClusterOption) *RepresentativeClusterer {
	t.Helper()
	config := DefaultClusterConfig()
	config.Representatives = k
	rc, err := NewRepresentativeClusterer(config, opts...)
	if err != nil {
		t.Fatalf("NewRepresentativeClusterer failed: %v", err)
	}
	return rc
}

func TestSelectRepresentativesNearestToCentroid(t *testing.T) {
	rc := newTestClusterer(t, 2,
		UsingVectorizer(stubVectorizer{m: mat.NewDense(4, 2, []float64{
			0.8, 0.6,
			1, 0,
			0, 1,
			0.6, 0.8,
		})}),
		UsingPartitioner(stubPartitioner{
			assign:    []int{0, 0, 1, 1},
			centroids: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		}),
	)

	reps, err := rc.SelectRepresentatives(context.Background(), recordsOf(Positive, "a", "b", "c", "d"))
	if err != nil {
		t.Fatalf("SelectRepresentatives failed: %v", err)
	}

	want := []Representative{
		{Text: "b", Confidence: 0.9, ClusterID: 0, ClusterSize: 2},
		{Text: "c", Confidence: 0.9, ClusterID: 1, ClusterSize: 2},
	}
	if fmt.Sprint(reps) != fmt.Sprint(want) {
		t.Errorf("expected %+v, got %+v", want, reps)
	}
}

func TestSelectRepresentativesTieGoesToFirstMember(t *testing.T) {
	rc := newTestClusterer(t, 2,
		UsingVectorizer(stubVectorizer{m: mat.NewDense(3, 2, []float64{
			0, 1,
			1, 0,
			1, 0,
		})}),
		UsingPartitioner(stubPartitioner{
			assign:    []int{0, 1, 1},
			centroids: mat.NewDense(2, 2, []float64{0, 1, 1, 0}),
		}),
	)

	reps, err := rc.SelectRepresentatives(context.Background(), recordsOf(Negative, "a", "b", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(reps) != 2 || reps[1].Text != "b" {
		t.Errorf("expected b to win the tie, got %+v", reps)
	}
}

func TestClustersDropEmptyClusters(t *testing.T) {
	rc := newTestClusterer(t, 3,
		UsingVectorizer(stubVectorizer{m: mat.NewDense(4, 1, []float64{0, 0, 1, 1})}),
		UsingPartitioner(stubPartitioner{
			assign:    []int{0, 0, 2, 2},
			centroids: mat.NewDense(3, 1, []float64{0, 0.5, 1}),
		}),
	)

	clusters, err := rc.Clusters(context.Background(), recordsOf(Positive, "a", "b", "c", "d"))
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 2 || clusters[0].ID != 0 || clusters[1].ID != 2 {
		t.Errorf("expected clusters 0 and 2, got %+v", clusters)
	}
}

func TestSmallGroupFallback(t *testing.T) {
	rc := newTestClusterer(t, 5)
	records := recordsOf(Neutral, "fine", "okay")

	reps, err := rc.SelectRepresentatives(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if len(reps) != 2 {
		t.Fatalf("expected every record back, got %d", len(reps))
	}
	for i, r := range reps {
		if r.Text != records[i].Text || r.ClusterID != 0 || r.ClusterSize != 2 {
			t.Errorf("unexpected fallback representative %+v", r)
		}
	}

	clusters, err := rc.Clusters(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if len(clusters) != 1 || len(clusters[0].Members) != 2 {
		t.Errorf("expected one pseudo-cluster, got %+v", clusters)
	}
}

func TestEmptyVocabularyKeepsOneCluster(t *testing.T) {
	rc := newTestClusterer(t, 2, UsingVectorizer(stubVectorizer{err: ErrEmptyVocabulary}))

	reps, err := rc.SelectRepresentatives(context.Background(), recordsOf(Positive, "x", "y", "z"))
	if err != nil {
		t.Fatal(err)
	}
	if len(reps) != 1 || reps[0].Text != "x" || reps[0].ClusterSize != 3 {
		t.Errorf("expected the first record for the whole group, got %+v", reps)
	}
}

func TestClustersRejectInconsistentCapabilities(t *testing.T) {
	tests := []struct {
		vectorizer  stubVectorizer
		partitioner stubPartitioner
		desc        string
	}{
		{
			stubVectorizer{m: mat.NewDense(2, 1, []float64{0, 1})},
			stubPartitioner{assign: []int{0, 1, 1}, centroids: mat.NewDense(2, 1, nil)},
			"Row count mismatch",
		},
		{
			stubVectorizer{m: mat.NewDense(3, 1, []float64{0, 1, 2})},
			stubPartitioner{assign: []int{0, 1}, centroids: mat.NewDense(2, 1, nil)},
			"Assignment count mismatch",
		},
		{
			stubVectorizer{m: mat.NewDense(3, 1, []float64{0, 1, 2})},
			stubPartitioner{assign: []int{0, 1, 5}, centroids: mat.NewDense(2, 1, nil)},
			"Assignment out of range",
		},
		{
			stubVectorizer{m: mat.NewDense(3, 1, []float64{0, 1, 2})},
			stubPartitioner{assign: []int{0, 1, 1}, centroids: mat.NewDense(3, 1, nil)},
			"Centroid shape",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rc := newTestClusterer(t, 2, UsingVectorizer(tt.vectorizer), UsingPartitioner(tt.partitioner))
			if _, err := rc.Clusters(context.Background(), recordsOf(Positive, "a", "b", "c")); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSelectRepresentativesWithTFIDF(t *testing.T) {
	rc := newTestClusterer(t, 2)
	records := recordsOf(Positive,
		"The breakfast buffet had fresh pastries and good coffee",
		"Loved the breakfast, fresh pastries every morning",
		"Breakfast coffee and pastries were excellent",
		"The rooftop pool had a stunning view of the harbour",
		"Pool with a stunning harbour view, very relaxing",
		"Stunning view from the pool deck at sunset",
	)

	reps, err := rc.SelectRepresentatives(context.Background(), records)
	if err != nil {
		t.Fatalf("SelectRepresentatives failed: %v", err)
	}
	if len(reps) == 0 || len(reps) > 2 {
		t.Fatalf("expected one or two representatives, got %d", len(reps))
	}

	texts := make(map[string]bool, len(records))
	for _, r := range records {
		texts[r.Text] = true
	}
	total := 0
	for _, r := range reps {
		if !texts[r.Text] {
			t.Errorf("representative %q is not an input record", r.Text)
		}
		total += r.ClusterSize
	}
	if total != len(records) {
		t.Errorf("cluster sizes sum to %d, want %d", total, len(records))
	}
}

func TestSelectAll(t *testing.T) {
	rc := newTestClusterer(t, 5)
	groups := map[Sentiment][]ScoredSentimentRecord{
		Positive: recordsOf(Positive, "great", "lovely"),
		Neutral:  recordsOf(Neutral, "fine"),
	}

	out, err := rc.SelectAll(context.Background(), groups)
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(out[Positive]) != 2 || len(out[Neutral]) != 1 {
		t.Errorf("unexpected representatives %+v", out)
	}
	if _, ok := out[Negative]; ok {
		t.Error("empty groups should be omitted")
	}

	failing := newTestClusterer(t, 1, UsingVectorizer(stubVectorizer{err: errors.New("out of memory")}))
	if _, err := failing.SelectAll(context.Background(), groups); err == nil {
		t.Error("expected the vectorizer failure to surface")
	}
}

func TestGroupBySentiment(t *testing.T) {
	records := append(recordsOf(Positive, "p1", "p2"), recordsOf(Negative, "n1")...)
	groups := GroupBySentiment(records)
	if len(groups[Positive]) != 2 || groups[Positive][1].Text != "p2" || len(groups[Negative]) != 1 {
		t.Errorf("unexpected groups %+v", groups)
	}
	if len(groups[Neutral]) != 0 {
		t.Error("no neutral records expected")
	}
}
