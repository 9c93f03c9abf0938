package reviewrisk

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// KeywordLexicon lists the per-sentiment keywords that earn the intrinsic
// score bonus. The three lists are independent.
type KeywordLexicon struct {
	Positive []string `json:"positive" yaml:"positive"`
	Neutral  []string `json:"neutral" yaml:"neutral"`
	Negative []string `json:"negative" yaml:"negative"`
}

// DefaultKeywordLexicon returns keywords typical of venue and product reviews.
func DefaultKeywordLexicon() KeywordLexicon {
	return KeywordLexicon{
		Positive: []string{
			"excellent", "amazing", "friendly", "clean", "delicious", "recommend",
			"helpful", "beautiful", "comfortable", "great", "perfect", "wonderful",
		},
		Neutral: []string{
			"okay", "average", "decent", "fine", "standard", "expected",
			"normal", "reasonable", "nothing special",
		},
		Negative: []string{
			"dirty", "rude", "terrible", "awful", "slow", "noisy", "broken",
			"disappointing", "refund", "worst", "cold", "overpriced",
		},
	}
}

// For returns the keyword list of a sentiment.
func (kl KeywordLexicon) For(s Sentiment) []string {
	switch s {
	case Positive:
		return kl.Positive
	case Negative:
		return kl.Negative
	case Neutral:
		return kl.Neutral
	}
	return nil
}

// LoadKeywordLexicon reads a KeywordLexicon from a JSON file. Keywords are
// lower-cased, and blanks and duplicates dropped.
func LoadKeywordLexicon(path string) (KeywordLexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordLexicon{}, fmt.Errorf("error reading keyword file: %w", err)
	}

	var kl KeywordLexicon
	if err := json.Unmarshal(data, &kl); err != nil {
		return KeywordLexicon{}, fmt.Errorf("error parsing keyword JSON: %w", err)
	}

	kl.Positive = cleanKeywords(kl.Positive)
	kl.Neutral = cleanKeywords(kl.Neutral)
	kl.Negative = cleanKeywords(kl.Negative)
	return kl, nil
}

// cleanKeywords lower-cases and trims keywords, dropping blanks and
// duplicates while keeping first-seen order.
func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// SentimentLexicon holds word polarities, modifiers and negations for the
// built-in LexiconClassifier.
type SentimentLexicon struct {
	words     map[string]float64 // -1 to 1
	modifiers map[string]float64 // >0 intensifies, <0 diminishes
	negations map[string]bool
}

// ExternalLexicon is the JSON layout of an external lexicon file.
type ExternalLexicon struct {
	Words        []WordEntry `json:"words,omitempty"`
	Intensifiers []string    `json:"intensifiers,omitempty"`
	Diminishers  []string    `json:"diminishers,omitempty"`
	Negations    []string    `json:"negations,omitempty"`
}

// WordEntry is one sentiment word in an external lexicon file.
type WordEntry struct {
	Word      string  `json:"word"`
	Sentiment float64 `json:"sentiment"`
}

// NewSentimentLexicon returns the built-in English review lexicon.
func NewSentimentLexicon() *SentimentLexicon {
	sl := &SentimentLexicon{
		words:     make(map[string]float64, len(englishWords)),
		modifiers: make(map[string]float64, len(englishModifiers)),
		negations: make(map[string]bool, len(englishNegations)),
	}
	for w, v := range englishWords {
		sl.words[w] = v
	}
	for w, v := range englishModifiers {
		sl.modifiers[w] = v
	}
	for _, w := range englishNegations {
		sl.negations[w] = true
	}
	return sl
}

// LoadExternalLexicon merges an external JSON lexicon into sl.
func (sl *SentimentLexicon) LoadExternalLexicon(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading lexicon file: %w", err)
	}

	var external ExternalLexicon
	if err := json.Unmarshal(data, &external); err != nil {
		return fmt.Errorf("error parsing lexicon JSON: %w", err)
	}

	for _, entry := range external.Words {
		if entry.Sentiment < -1 || entry.Sentiment > 1 {
			return fmt.Errorf("%w: word %q sentiment %v outside [-1,1]", ErrInvalidInput, entry.Word, entry.Sentiment)
		}
		sl.words[strings.ToLower(entry.Word)] = entry.Sentiment
	}
	for _, w := range external.Intensifiers {
		sl.modifiers[strings.ToLower(w)] = 0.3
	}
	for _, w := range external.Diminishers {
		sl.modifiers[strings.ToLower(w)] = -0.3
	}
	for _, w := range external.Negations {
		sl.negations[strings.ToLower(w)] = true
	}
	return nil
}

// Sentiment returns the polarity of a lower-cased word, 0 when unknown.
func (sl *SentimentLexicon) Sentiment(word string) float64 {
	return sl.words[word]
}

// Modifier returns the modifier strength of a lower-cased word.
func (sl *SentimentLexicon) Modifier(word string) float64 {
	return sl.modifiers[word]
}

// IsNegation reports whether a lower-cased word negates what follows.
func (sl *SentimentLexicon) IsNegation(word string) bool {
	return sl.negations[word] || strings.HasSuffix(word, "n't")
}

// Size returns the number of sentiment words.
func (sl *SentimentLexicon) Size() int {
	return len(sl.words)
}

var englishWords = map[string]float64{
	// Strong positive
	"excellent": 0.9, "amazing": 0.85, "wonderful": 0.85, "fantastic": 0.85,
	"outstanding": 0.9, "perfect": 0.95, "brilliant": 0.85, "superb": 0.85,
	"exceptional": 0.9, "delicious": 0.8, "spotless": 0.8, "awesome": 0.8,
	"love": 0.8, "loved": 0.8, "best": 0.85,

	// Moderate positive
	"good": 0.6, "great": 0.75, "nice": 0.5, "happy": 0.7, "beautiful": 0.75,
	"enjoy": 0.65, "enjoyed": 0.65, "like": 0.5, "liked": 0.5, "pleasant": 0.6,
	"friendly": 0.65, "helpful": 0.6, "clean": 0.5, "comfortable": 0.6,
	"recommend": 0.7, "fun": 0.65, "welcoming": 0.65, "attentive": 0.6,

	// Mild positive
	"okay": 0.2, "fine": 0.3, "decent": 0.4, "reasonable": 0.3,

	// Strong negative
	"terrible": -0.9, "awful": -0.85, "horrible": -0.85, "disgusting": -0.9,
	"appalling": -0.9, "dreadful": -0.85, "atrocious": -0.9, "abysmal": -0.95,
	"worst": -0.85, "filthy": -0.85, "hate": -0.8, "hated": -0.8,

	// Moderate negative
	"bad": -0.6, "dirty": -0.7, "rude": -0.75, "disappointing": -0.7,
	"disappointed": -0.7, "poor": -0.65, "wrong": -0.6, "worse": -0.5,
	"annoying": -0.65, "boring": -0.6, "broken": -0.6, "noisy": -0.5,
	"overpriced": -0.6, "unfriendly": -0.65, "cold": -0.3, "slow": -0.3,
	"smelly": -0.7, "avoid": -0.7,
}

var englishModifiers = map[string]float64{
	"very": 0.3, "extremely": 0.5, "absolutely": 0.5, "totally": 0.4,
	"really": 0.3, "so": 0.3, "quite": 0.2, "incredibly": 0.5, "super": 0.4,
	"utterly": 0.5, "completely": 0.4, "truly": 0.3,
	"slightly": -0.3, "somewhat": -0.3, "rather": -0.2, "fairly": -0.1,
	"barely": -0.5, "hardly": -0.5,
}

var englishNegations = []string{
	"not", "no", "never", "neither", "nor", "cannot", "without",
	"nobody", "nothing", "nowhere", "none",
}
