package reviewrisk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyVocabulary is returned by a Vectorizer when no term survives the
// document-frequency and stop-word filters.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// VectorizerOptions configures term extraction.
type VectorizerOptions struct {
	MaxFeatures int      `yaml:"max_features"` // Vocabulary cap, 0 for no cap
	NGramMin    int      `yaml:"ngram_min"`    // Shortest n-gram, in words
	NGramMax    int      `yaml:"ngram_max"`    // Longest n-gram, in words
	MinDocFreq  int      `yaml:"min_doc_freq"` // Minimum number of documents containing a term
	MaxDocFreq  float64  `yaml:"max_doc_freq"` // Maximum fraction of documents containing a term
	Language    string   `yaml:"language"`     // ISO 639-1 code for stop words
	StopWords   []string `yaml:"stop_words"`
}

// DefaultVectorizerOptions returns standard configuration.
func DefaultVectorizerOptions() VectorizerOptions {
	return VectorizerOptions{
		MaxFeatures: 1000,
		NGramMin:    1,
		NGramMax:    2,
		MinDocFreq:  1,
		MaxDocFreq:  0.95,
		Language:    "en",
	}
}

// Validate checks the options.
func (o VectorizerOptions) Validate() error {
	if o.MaxFeatures < 0 {
		return fmt.Errorf("%w: max features %d", ErrInvalidInput, o.MaxFeatures)
	}
	if o.NGramMin < 1 || o.NGramMax < o.NGramMin {
		return fmt.Errorf("%w: n-gram range (%d,%d)", ErrInvalidInput, o.NGramMin, o.NGramMax)
	}
	if o.MinDocFreq < 1 {
		return fmt.Errorf("%w: min document frequency %d", ErrInvalidInput, o.MinDocFreq)
	}
	if math.IsNaN(o.MaxDocFreq) || o.MaxDocFreq <= 0 || o.MaxDocFreq > 1 {
		return fmt.Errorf("%w: max document frequency %v outside (0,1]", ErrInvalidInput, o.MaxDocFreq)
	}
	return nil
}

// TFIDFVectorizer builds L2-normalized TF-IDF rows with smooth idf.
type TFIDFVectorizer struct{}

// Vectorize returns one row per text and one column per vocabulary term.
func (TFIDFVectorizer) Vectorize(texts []string, opts VectorizerOptions) (*mat.Dense, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to vectorize", ErrInvalidInput)
	}

	docs := analyze(texts, opts)
	vocab, df := buildVocabulary(docs, opts)
	if len(vocab) == 0 {
		return nil, ErrEmptyVocabulary
	}

	column := make(map[string]int, len(vocab))
	for j, term := range vocab {
		column[term] = j
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	m := mat.NewDense(len(docs), len(vocab), nil)
	for i, doc := range docs {
		row := m.RawRowView(i)
		for _, term := range doc {
			if j, ok := column[term]; ok {
				row[j]++
			}
		}
		for j := range row {
			row[j] *= idf[j]
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return m, nil
}

// analyze turns each text into its stop-word filtered n-grams.
func analyze(texts []string, opts VectorizerOptions) [][]string {
	filter := newStopWordFilter(opts.Language, opts.StopWords)
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = ngrams(filter.filter(terms(text)), opts.NGramMin, opts.NGramMax)
	}
	return docs
}

func ngrams(toks []string, lo, hi int) []string {
	var grams []string
	for size := lo; size <= hi; size++ {
		for i := 0; i+size <= len(toks); i++ {
			grams = append(grams, strings.Join(toks[i:i+size], " "))
		}
	}
	return grams
}

// buildVocabulary applies the document-frequency cutoffs and the feature
// cap. Capping keeps the most frequent terms (ties by term); the result is
// sorted alphabetically.
func buildVocabulary(docs [][]string, opts VectorizerOptions) ([]string, map[string]int) {
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, term := range doc {
			tf[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	maxDocs := opts.MaxDocFreq * float64(len(docs))
	vocab := make([]string, 0, len(df))
	for term, count := range df {
		if count >= opts.MinDocFreq && float64(count) <= maxDocs {
			vocab = append(vocab, term)
		}
	}

	if opts.MaxFeatures > 0 && len(vocab) > opts.MaxFeatures {
		sort.Slice(vocab, func(a, b int) bool {
			if tf[vocab[a]] != tf[vocab[b]] {
				return tf[vocab[a]] > tf[vocab[b]]
			}
			return vocab[a] < vocab[b]
		})
		vocab = vocab[:opts.MaxFeatures]
	}

	sort.Strings(vocab)
	return vocab, df
}
