package reviewrisk

import (
	"context"
	"math"
)

// LexiconClassifier is a deterministic binary Classifier driven by a
// SentimentLexicon. It never answers NEUTRAL; weak or balanced evidence
// yields a low confidence instead, which the adapter demotes.
type LexiconClassifier struct {
	lexicon        *SentimentLexicon
	negationWindow int
}

// NewLexiconClassifier creates a classifier. A nil lexicon selects the
// built-in English one.
func NewLexiconClassifier(lexicon *SentimentLexicon) *LexiconClassifier {
	if lexicon == nil {
		lexicon = NewSentimentLexicon()
	}
	return &LexiconClassifier{lexicon: lexicon, negationWindow: 3}
}

// Classify scores text against the lexicon.
func (lc *LexiconClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	select {
	case <-ctx.Done():
		return Classification{}, ctx.Err()
	default:
	}

	toks := words(text)

	var pos, neg float64
	hits := 0
	for i, tok := range toks {
		s := lc.lexicon.Sentiment(tok)
		if s == 0 {
			continue
		}
		s = lc.applyModifiers(s, toks, i)
		if lc.negated(toks, i) {
			s = -s * 0.5 // negation reverses but weakens
		}
		if s > 0 {
			pos += s
		} else {
			neg += math.Abs(s)
		}
		hits++
	}

	if hits == 0 {
		return Classification{Label: string(Positive), Confidence: 0.5}, nil
	}

	polarity := (pos - neg) / (pos + neg)
	intensity := math.Min(1, math.Max(pos, neg)/float64(hits))
	coverage := math.Min(1, float64(hits)/2)

	label := Positive
	if polarity < 0 {
		label = Negative
	}
	confidence := 0.5 + 0.5*math.Abs(polarity)*intensity*coverage

	return Classification{Label: string(label), Confidence: clamp01(confidence)}, nil
}

// applyModifiers scales a polarity by the nearest modifier in the two
// preceding words.
func (lc *LexiconClassifier) applyModifiers(s float64, toks []string, position int) float64 {
	for i := position - 1; i >= 0 && i >= position-2; i-- {
		if m := lc.lexicon.Modifier(toks[i]); m != 0 {
			return s * (1 + m)
		}
	}
	return s
}

// negated reports whether a negation precedes position within the window
// without an intervening contrastive conjunction.
func (lc *LexiconClassifier) negated(toks []string, position int) bool {
	for i := position - 1; i >= 0 && i >= position-lc.negationWindow; i-- {
		if clauseBoundaries[toks[i]] {
			return false
		}
		if lc.lexicon.IsNegation(toks[i]) {
			return true
		}
	}
	return false
}

var clauseBoundaries = map[string]bool{
	"but": true, "however": true, "although": true, "though": true, "yet": true,
}
