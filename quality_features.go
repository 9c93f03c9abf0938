package reviewrisk

import (
	"regexp"
	"strings"
)

// markupPatterns flag fragments of page chrome, styles or scripts that the
// extractor failed to strip.
var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<\/?[a-zA-Z][^>]*>`),                     // HTML tags
	regexp.MustCompile(`&(?:[a-z]+|#\d+);`),                      // entities
	regexp.MustCompile(`\bfunction\b\s*\w*\s*\(`),                // JS functions
	regexp.MustCompile(`\b(?:var|let|const)\s+\w+\s*=`),          // JS declarations
	regexp.MustCompile(`\b(?:document|window)\.\w+`),             // DOM access
	regexp.MustCompile(`\w+\.\w+\(`),                             // method calls
	regexp.MustCompile(`[#.]?[\w-]+\s*\{[^}]*:[^}]*;?[^}]*\}`),   // CSS rules
	regexp.MustCompile(`https?://\S+`),                           // bare URLs
	regexp.MustCompile(`(?m)[{};]\s*$`),                          // statement endings
	regexp.MustCompile(`\b(?:px|rem|em|rgba?)\b\s*[;)]`),         // style values
}

var (
	nameOpeningRE = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]*\.?){1,2}(?:[\s,:]|$)`)
	ratingRE      = regexp.MustCompile(`(?i)\b[0-5](?:\.\d)?\s*(?:/|out of)\s*(?:5|10)\b|\b[1-5]\s*stars?\b|★`)
)

// countMarkupMatches returns how many distinct patterns match text.
func countMarkupMatches(text string) int {
	n := 0
	for _, re := range markupPatterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// isFirstPerson reports whether a lower-cased word is a first-person pronoun,
// including contractions such as "i'm" or "we've".
func isFirstPerson(word string) bool {
	if i := strings.IndexByte(word, '\''); i > 0 {
		word = word[:i]
	}
	return firstPersonPronouns[word]
}

var firstPersonPronouns = map[string]bool{
	"i": true, "me": true, "my": true, "mine": true, "myself": true,
	"we": true, "us": true, "our": true, "ours": true, "ourselves": true,
}

// functionWords are the closed-class words that dominate ordinary English
// prose and are nearly absent from menus, navigation and code.
var functionWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "from": true, "by": true, "as": true, "about": true,
	"is": true, "was": true, "were": true, "are": true, "be": true, "been": true,
	"it": true, "this": true, "that": true, "these": true, "those": true,
	"so": true, "not": true, "very": true, "had": true, "have": true, "has": true,
	"they": true, "there": true, "we": true, "i": true, "my": true, "you": true,
	"he": true, "she": true, "his": true, "her": true, "our": true, "their": true,
	"if": true, "when": true, "than": true, "then": true, "would": true,
	"could": true, "will": true, "can": true, "did": true, "do": true,
}
