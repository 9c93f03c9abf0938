package reviewrisk

import (
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

// stopWordFilter drops stop words of one language. The bbalet/stopwords
// package does not export its lists, so membership is detected by checking
// whether CleanString removes the word. CleanString strips digits, so terms
// holding a number are never stop words unless listed as extras. Answers are
// cached per filter; a filter must not be shared between goroutines.
type stopWordFilter struct {
	lang  string
	extra map[string]bool
	seen  map[string]bool
}

// newStopWordFilter creates a filter for an ISO 639-1 language code with
// optional additional stop words.
func newStopWordFilter(lang string, extra []string) *stopWordFilter {
	if lang == "" {
		lang = "en"
	}
	f := &stopWordFilter{
		lang:  lang,
		extra: make(map[string]bool, len(extra)),
		seen:  make(map[string]bool),
	}
	for _, w := range extra {
		f.extra[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return f
}

// isStopWord reports whether a lower-cased word is a stop word.
func (f *stopWordFilter) isStopWord(word string) bool {
	if f.extra[word] {
		return true
	}
	if stop, ok := f.seen[word]; ok {
		return stop
	}
	stop := !strings.ContainsFunc(word, unicode.IsNumber) &&
		strings.TrimSpace(stopwords.CleanString(word, f.lang, false)) == ""
	f.seen[word] = stop
	return stop
}

// filter returns toks without stop words.
func (f *stopWordFilter) filter(toks []string) []string {
	kept := toks[:0:0]
	for _, t := range toks {
		if !f.isStopWord(t) {
			kept = append(kept, t)
		}
	}
	return kept
}
