package reviewrisk

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/data"
)

var sanitizer = strings.NewReplacer(
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2018", "'",
	"\u2019", "'",
	"\u00a0", " ",
	"&rsquo;", "'",
	"&nbsp;", " ",
	"&amp;", "&")

// sanitize maps typographic quotes and a few leftover entities to ASCII and
// puts the text in NFC form so that counting and matching are stable.
func sanitize(text string) string {
	return sanitizer.Replace(norm.NFC.String(text))
}

var (
	wordRE  = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}]+)?`)
	termRE  = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
	spaceRE = regexp.MustCompile(`\s+`)
)

// words returns the lower-cased words of text. Apostrophe contractions stay
// whole ("don't", "i'm").
func words(text string) []string {
	found := wordRE.FindAllString(sanitize(text), -1)
	for i, w := range found {
		found[i] = strings.ToLower(w)
	}
	return found
}

// terms returns the lower-cased tokens of two or more word characters used
// for vectorization.
func terms(text string) []string {
	found := termRE.FindAllString(sanitize(text), -1)
	for i, t := range found {
		found[i] = strings.ToLower(t)
	}
	return found
}

// wordCount is the whitespace-split length of text.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

// collapseSpace trims text and folds every whitespace run into one space.
func collapseSpace(text string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(text, " "))
}

// punktSegmenter splits text into sentences with the English punkt model.
type punktSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func newPunktSegmenter() (*punktSegmenter, error) {
	b, err := data.Asset("data/english.json")
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}

	training, err := sentences.LoadTraining(b)
	if err != nil {
		return nil, fmt.Errorf("parse punkt model: %w", err)
	}

	return &punktSegmenter{tokenizer: sentences.NewSentenceTokenizer(training)}, nil
}

// segment returns the non-empty, trimmed sentences of text.
func (p *punktSegmenter) segment(text string) []string {
	var sents []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			sents = append(sents, t)
		}
	}
	return sents
}
