package reviewrisk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vectorizer turns texts into a numeric matrix, one row per text.
type Vectorizer interface {
	Vectorize(texts []string, opts VectorizerOptions) (*mat.Dense, error)
}

// Partitioner splits matrix rows into k clusters. It must be deterministic
// for a given seed.
type Partitioner interface {
	Partition(m *mat.Dense, k int, seed int64) (assignments []int, centroids *mat.Dense, err error)
}

// ClusterConfig configures representative selection.
type ClusterConfig struct {
	Representatives int               `yaml:"representatives"` // Desired clusters, and representatives, per sentiment
	Seed            int64             `yaml:"seed"`
	Vectorizer      VectorizerOptions `yaml:"vectorizer"`
}

// DefaultClusterConfig returns standard configuration.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Representatives: 5,
		Seed:            42,
		Vectorizer:      DefaultVectorizerOptions(),
	}
}

// Validate checks the configuration.
func (c ClusterConfig) Validate() error {
	if c.Representatives < 1 {
		return fmt.Errorf("%w: representatives %d", ErrInvalidInput, c.Representatives)
	}
	return c.Vectorizer.Validate()
}

// ClusterOption configures a RepresentativeClusterer.
type ClusterOption func(rc *RepresentativeClusterer)

// UsingVectorizer replaces the TF-IDF vectorizer.
func UsingVectorizer(v Vectorizer) ClusterOption {
	return func(rc *RepresentativeClusterer) {
		rc.vectorizer = v
	}
}

// UsingPartitioner replaces k-means.
func UsingPartitioner(p Partitioner) ClusterOption {
	return func(rc *RepresentativeClusterer) {
		rc.partitioner = p
	}
}

// UsingClusterLogger sets the logger.
func UsingClusterLogger(logger *zap.Logger) ClusterOption {
	return func(rc *RepresentativeClusterer) {
		rc.logger = logger
	}
}

// RepresentativeClusterer picks the comments that best stand for the themes
// of a sentiment class.
type RepresentativeClusterer struct {
	config      ClusterConfig
	vectorizer  Vectorizer
	partitioner Partitioner
	logger      *zap.Logger
}

// NewRepresentativeClusterer creates a clusterer backed by TF-IDF and k-means
// unless options replace them.
func NewRepresentativeClusterer(config ClusterConfig, opts ...ClusterOption) (*RepresentativeClusterer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	rc := &RepresentativeClusterer{
		config:      config,
		vectorizer:  TFIDFVectorizer{},
		partitioner: NewKMeans(),
		logger:      zap.NewNop(),
	}
	for _, applyOpt := range opts {
		applyOpt(rc)
	}
	return rc, nil
}

// Clusters partitions one sentiment class. Groups smaller than the
// representative count, and groups without any usable term, come back as a
// single cluster 0 holding every record.
func (rc *RepresentativeClusterer) Clusters(ctx context.Context, records []ScoredSentimentRecord) ([]Cluster, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	n := len(records)
	if n == 0 {
		return nil, nil
	}
	k := rc.config.Representatives
	if n < k {
		return []Cluster{wholeGroup(n)}, nil
	}

	texts := make([]string, n)
	for i, r := range records {
		texts[i] = r.Text
	}

	m, err := rc.vectorizer.Vectorize(texts, rc.config.Vectorizer)
	if errors.Is(err, ErrEmptyVocabulary) {
		rc.logger.Info("No usable terms, keeping one cluster", zap.Int("records", n))
		return []Cluster{wholeGroup(n)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	rows, cols := m.Dims()
	if rows != n {
		return nil, fmt.Errorf("%w: vectorizer returned %d rows for %d texts", ErrInvalidInput, rows, n)
	}

	assign, centroids, err := rc.partitioner.Partition(m, k, rc.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	if len(assign) != n {
		return nil, fmt.Errorf("%w: %d assignments for %d rows", ErrInvalidInput, len(assign), n)
	}
	if cr, cc := centroids.Dims(); cr != k || cc != cols {
		return nil, fmt.Errorf("%w: centroids %dx%d, want %dx%d", ErrInvalidInput, cr, cc, k, cols)
	}

	members := make([][]int, k)
	for i, c := range assign {
		if c < 0 || c >= k {
			return nil, fmt.Errorf("%w: cluster %d outside [0,%d)", ErrInvalidInput, c, k)
		}
		members[c] = append(members[c], i)
	}

	var clusters []Cluster
	for c := 0; c < k; c++ {
		if len(members[c]) == 0 {
			continue
		}
		centroid := make([]float64, cols)
		copy(centroid, centroids.RawRowView(c))
		clusters = append(clusters, Cluster{
			ID:       c,
			Members:  members[c],
			Centroid: centroid,
			rows:     rowsOf(m, members[c]),
		})
	}
	return clusters, nil
}

// SelectRepresentatives returns one representative per surviving cluster,
// ordered by cluster id. Groups below the representative count return every
// record as a member of cluster 0.
func (rc *RepresentativeClusterer) SelectRepresentatives(ctx context.Context, records []ScoredSentimentRecord) ([]Representative, error) {
	began := time.Now()
	if len(records) < rc.config.Representatives {
		reps := make([]Representative, 0, len(records))
		for _, r := range records {
			reps = append(reps, representativeOf(r, 0, len(records)))
		}
		return reps, nil
	}

	clusters, err := rc.Clusters(ctx, records)
	if err != nil {
		return nil, err
	}

	reps := make([]Representative, 0, len(clusters))
	for _, c := range clusters {
		idx := c.nearestMember()
		reps = append(reps, representativeOf(records[idx], c.ID, len(c.Members)))
	}

	rc.logger.Debug("Selected representatives",
		zap.Int("records", len(records)),
		zap.Int("clusters", len(clusters)),
		zap.Duration("elapsed", time.Since(began)),
	)
	return reps, nil
}

// SelectAll runs SelectRepresentatives for every sentiment concurrently.
// Empty groups are omitted from the result.
func (rc *RepresentativeClusterer) SelectAll(ctx context.Context, groups map[Sentiment][]ScoredSentimentRecord) (map[Sentiment][]Representative, error) {
	results := make([][]Representative, len(Sentiments))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range Sentiments {
		records := groups[s]
		if len(records) == 0 {
			continue
		}
		i, s := i, s
		g.Go(func() error {
			reps, err := rc.SelectRepresentatives(gctx, records)
			if err != nil {
				return fmt.Errorf("%s representatives: %w", s, err)
			}
			results[i] = reps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Sentiment][]Representative, len(Sentiments))
	for i, s := range Sentiments {
		if results[i] != nil {
			out[s] = results[i]
		}
	}
	return out, nil
}

// GroupBySentiment splits records by label, keeping input order.
func GroupBySentiment(records []ScoredSentimentRecord) map[Sentiment][]ScoredSentimentRecord {
	groups := make(map[Sentiment][]ScoredSentimentRecord, len(Sentiments))
	for _, r := range records {
		groups[r.Sentiment] = append(groups[r.Sentiment], r)
	}
	return groups
}

func wholeGroup(n int) Cluster {
	members := make([]int, n)
	for i := range members {
		members[i] = i
	}
	return Cluster{ID: 0, Members: members}
}

func rowsOf(m *mat.Dense, idx []int) [][]float64 {
	rows := make([][]float64, len(idx))
	for i, r := range idx {
		rows[i] = m.RawRowView(r)
	}
	return rows
}

// nearestMember returns the member index most similar to the centroid. The
// earliest member wins exact ties; clusters without vectors yield their
// first member.
func (c Cluster) nearestMember() int {
	if len(c.Members) == 1 || len(c.rows) != len(c.Members) {
		return c.Members[0]
	}
	best, bestSim := 0, math.Inf(-1)
	for i, row := range c.rows {
		if sim := cosineSimilarity(row, c.Centroid); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return c.Members[best]
}

func representativeOf(r ScoredSentimentRecord, clusterID, size int) Representative {
	return Representative{
		Text:        r.Text,
		Confidence:  r.Confidence,
		ClusterID:   clusterID,
		ClusterSize: size,
	}
}

// cosineSimilarity is 0 when either vector is zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
