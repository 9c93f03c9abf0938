package reviewrisk

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

const (
	sampleReview = "We stayed here for three nights and the staff were friendly and helpful. " +
		"Our room was clean and the breakfast was delicious."
	sampleScript = "var count = 0; function init() { count += 1; return count; }"

	// One sentence of nine words, seven distinct, ending in a full stop.
	calmSentence = "The pool was warm and the bar was open."
)

// fixedContent answers every text with the same human likelihood.
type fixedContent struct {
	likelihood float64
	err        error
}

func (fc fixedContent) HumanLikelihood(context.Context, string) (float64, error) {
	return fc.likelihood, fc.err
}

func newTestScorer(t *testing.T, opts ...QualityOption) *QualityScorer {
	t.Helper()
	q, err := NewQualityScorer(DefaultQualityConfig(), opts...)
	if err != nil {
		t.Fatalf("NewQualityScorer failed: %v", err)
	}
	return q
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		text      string
		candidate bool
		desc      string
	}{
		{sampleReview, true, "First-person review"},
		{"Sarah K. The pool was lovely and the kids had a great time there.", true, "Name opening"},
		{sampleScript, false, "Leftover script"},
		{"button { color: red; margin: 0 }", false, "Stylesheet rule"},
		{"Too short.", false, "Below minimum length"},
		{"", false, "Empty"},
	}

	q := newTestScorer(t)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			sb, err := q.Score(context.Background(), NewRawBlock(tt.text, "test"))
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if sb.QualityScore < 0 || sb.QualityScore > 1 {
				t.Errorf("score %.3f outside [0,1]", sb.QualityScore)
			}
			if sb.IsCandidate != tt.candidate {
				t.Errorf("Text: %q\nExpected candidate=%v, got %v (score %.3f)",
					tt.text, tt.candidate, sb.IsCandidate, sb.QualityScore)
			}
		})
	}
}

func TestShortTextsScoreZero(t *testing.T) {
	q := newTestScorer(t, UsingContentClassifier(fixedContent{likelihood: 1}))
	for _, text := range []string{"", "a", "Great place to stay", "Lovely!!!!!!!!!!!!!!"} {
		if len([]rune(text)) >= 20 {
			continue
		}
		sb, _ := q.Score(context.Background(), NewRawBlock(text, ""))
		if sb.QualityScore != 0 {
			t.Errorf("%q: expected 0, got %.3f", text, sb.QualityScore)
		}
	}
}

func TestContentClassifierBlending(t *testing.T) {
	ctx := context.Background()
	block := NewRawBlock(sampleReview, "")

	plain, _ := newTestScorer(t).Score(ctx, block)
	doubtful, _ := newTestScorer(t, UsingContentClassifier(fixedContent{likelihood: 0})).Score(ctx, block)
	failing, _ := newTestScorer(t, UsingContentClassifier(fixedContent{err: errors.New("rate limited")})).Score(ctx, block)

	if doubtful.QualityScore >= plain.QualityScore {
		t.Errorf("a zero likelihood should lower the score: %.3f >= %.3f", doubtful.QualityScore, plain.QualityScore)
	}
	if math.Abs(failing.QualityScore-plain.QualityScore) > 1e-12 {
		t.Errorf("a failing classifier should fall back to coherence: %.3f != %.3f", failing.QualityScore, plain.QualityScore)
	}
}

func TestScoreAllAndCandidates(t *testing.T) {
	q := newTestScorer(t)
	blocks := []RawBlock{
		NewRawBlock(sampleScript, "a"),
		NewRawBlock(sampleReview, "b"),
		NewRawBlock("Menu", "c"),
	}

	scored, err := q.ScoreAll(context.Background(), blocks)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != len(blocks) {
		t.Fatalf("expected %d scored blocks, got %d", len(blocks), len(scored))
	}
	for i := range blocks {
		if scored[i].Source != blocks[i].Source {
			t.Errorf("block %d out of order", i)
		}
	}

	candidates := Candidates(scored)
	if len(candidates) != 1 || candidates[0].Source != "b" {
		t.Errorf("expected only block b to be a candidate, got %+v", candidates)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.ScoreAll(ctx, blocks); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestQualityConfigValidate(t *testing.T) {
	tests := []struct {
		mutate func(c *QualityConfig)
		desc   string
	}{
		{func(c *QualityConfig) { c.MinLength = -1 }, "Negative min length"},
		{func(c *QualityConfig) { c.CandidateThreshold = 1.5 }, "Threshold above one"},
		{func(c *QualityConfig) { c.DiversityWeight = -0.1 }, "Negative weight"},
		{func(c *QualityConfig) { c.IdealSentenceMax = 1 }, "Inverted sentence band"},
		{func(c *QualityConfig) { c.FunctionWordTarget = 0 }, "Zero function word target"},
		{func(c *QualityConfig) { c.MarkupSaturation = 0 }, "Zero markup saturation"},
		{func(c *QualityConfig) { c.LengthRampEnd = c.LengthRampStart }, "Empty length ramp"},
	}

	if err := DefaultQualityConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c := DefaultQualityConfig()
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestQualityFeatures(t *testing.T) {
	if n := countMarkupMatches(`<div class="x">Hello</div>`); n == 0 {
		t.Error("HTML tags not detected")
	}
	if n := countMarkupMatches(sampleReview); n != 0 {
		t.Errorf("plain review matched %d markup patterns", n)
	}

	for _, w := range []string{"i", "i'm", "we've", "our", "myself"} {
		if !isFirstPerson(w) {
			t.Errorf("%q should be first person", w)
		}
	}
	for _, w := range []string{"they", "you", "it's"} {
		if isFirstPerson(w) {
			t.Errorf("%q should not be first person", w)
		}
	}

	q := newTestScorer(t)
	if got := q.structuralBonus("Rated 4/5 overall"); got != q.config.RatingBonus {
		t.Errorf("expected the rating bonus, got %.2f", got)
	}
	if got := q.structuralBonus("John D. stayed with us"); got != q.config.NameBonus {
		t.Errorf("expected the name bonus, got %.2f", got)
	}
	if got := q.lengthBonus(10_000); got != q.config.LengthBonusMax {
		t.Errorf("expected the capped length bonus, got %.2f", got)
	}
	if got := q.pronounBonus([]string{"i", "my", "we", "our", "me"}); got != q.config.PronounBonusMax {
		t.Errorf("expected the capped pronoun bonus, got %.2f", got)
	}
}

func nWords(n int) string {
	return strings.TrimSpace(strings.Repeat("room ", n))
}

func TestSentenceLengthScore(t *testing.T) {
	tests := []struct {
		sents    []string
		expected float64
		desc     string
	}{
		{nil, 0, "No sentences"},
		{[]string{"Nice stay."}, 0.4, "Two words"},
		{[]string{"a b", "a b c d"}, 0.6, "Mean of three words"},
		{[]string{nWords(5)}, 1, "Band start"},
		{[]string{nWords(25)}, 1, "Band end"},
		{[]string{nWords(30)}, 0.8, "Five words over"},
		{[]string{nWords(40), nWords(20)}, 0.8, "Mean over the band"},
		{[]string{nWords(50)}, 0, "Twice the band end"},
		{[]string{nWords(60)}, 0, "Clamped at zero"},
	}

	q := newTestScorer(t)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := q.sentenceLengthScore(tt.sents); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %.4f, got %.4f", tt.expected, got)
			}
		})
	}
}

func TestCoherenceSubScores(t *testing.T) {
	q := newTestScorer(t)
	tests := []struct {
		got      float64
		expected float64
		desc     string
	}{
		{lexicalDiversity([]string{"the", "pool", "the", "bar"}), 0.75, "Diversity"},
		{lexicalDiversity(nil), 0, "Diversity of nothing"},
		{terminalPunctuation([]string{"Great.", "Wow!", "Why?", "no end", `He said "fine."`}), 0.8, "Terminal punctuation"},
		{terminalPunctuation(nil), 0, "Punctuation of nothing"},
		{q.functionWordScore([]string{"the", "pool"}), 1, "Function words saturate"},
		{q.functionWordScore([]string{"the", "pool", "bar", "spa", "view", "deck", "sun", "sea"}), 0.5, "Half the function word target"},
		{q.functionWordScore([]string{"pool", "bar"}), 0, "No function words"},
		{q.markupPenalty(sampleReview), 0, "Plain prose"},
		{q.markupPenalty("see <b>this</b> place"), 1.0 / 3, "One markup pattern"},
		{q.markupPenalty(sampleScript), 1, "Script saturates"},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.expected) > 1e-9 {
			t.Errorf("%s: expected %.4f, got %.4f", tt.desc, tt.expected, tt.got)
		}
	}
}

func TestCoherenceWeights(t *testing.T) {
	// "Pool pool the bar;" is one sentence of four words, three distinct,
	// one function word, no terminal stop and one markup pattern.
	const text = "Pool pool the bar;"
	toks := words(text)

	oneHot := []struct {
		set      func(c *QualityConfig)
		expected float64
		desc     string
	}{
		{func(c *QualityConfig) { c.SentenceLengthWeight = 1 }, 0.8, "Sentence length"},
		{func(c *QualityConfig) { c.DiversityWeight = 1 }, 0.75, "Diversity"},
		{func(c *QualityConfig) { c.PunctuationWeight = 1 }, 0, "Punctuation"},
		{func(c *QualityConfig) { c.FunctionWordWeight = 1 }, 1, "Function words"},
		{func(c *QualityConfig) { c.MarkupWeight = 1 }, 2.0 / 3, "Markup"},
	}
	for _, tt := range oneHot {
		t.Run(tt.desc, func(t *testing.T) {
			c := DefaultQualityConfig()
			c.SentenceLengthWeight, c.DiversityWeight, c.PunctuationWeight, c.FunctionWordWeight, c.MarkupWeight = 0, 0, 0, 0, 0
			tt.set(&c)
			q, err := NewQualityScorer(c)
			if err != nil {
				t.Fatal(err)
			}
			if got := q.coherence(text, toks); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %.4f, got %.4f", tt.expected, got)
			}
		})
	}

	// 0.2*0.8 + 0.3*0.75 + 0.2*0 + 0.2*1 + 0.1*(2/3)
	want := 0.16 + 0.225 + 0.2 + 0.1*2/3
	if got := newTestScorer(t).coherence(text, toks); math.Abs(got-want) > 1e-9 {
		t.Errorf("default weights: expected %.4f, got %.4f", want, got)
	}
}

func TestLengthBonusRamp(t *testing.T) {
	tests := []struct {
		length   int
		expected float64
	}{
		{0, 0},
		{24, 0},
		{25, 0},
		{100, 0.7 * 75 / 775},
		{412, 0.7 * 387 / 775},
		{799, 0.7 * 774 / 775},
		{800, 0.7},
		{10_000, 0.7},
	}

	q := newTestScorer(t)
	for _, tt := range tests {
		if got := q.lengthBonus(tt.length); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("lengthBonus(%d) = %.4f, want %.4f", tt.length, got, tt.expected)
		}
	}
}

func TestPronounBonusPerWord(t *testing.T) {
	q := newTestScorer(t)
	tests := []struct {
		toks     []string
		expected float64
	}{
		{[]string{"they", "loved", "it"}, 0},
		{[]string{"we", "loved", "it"}, 0.05},
		{[]string{"i", "loved", "my", "room"}, 0.1},
		{[]string{"i", "my", "we", "our"}, 0.15},
	}
	for _, tt := range tests {
		if got := q.pronounBonus(tt.toks); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("pronounBonus(%q) = %.2f, want %.2f", tt.toks, got, tt.expected)
		}
	}
}

func TestScoreHandComputed(t *testing.T) {
	// Coherence: 0.2*1 + 0.3*(7/9) + 0.2*1 + 0.2*1 + 0.1*1.
	coherence := 0.7 + 0.3*7/9
	// 39 runes, no pronouns, no name opening or rating.
	length := 0.7 * 14 / 775

	tests := []struct {
		opts     []QualityOption
		expected float64
		desc     string
	}{
		{nil, coherence + length, "Coherence only"},
		{[]QualityOption{UsingContentClassifier(fixedContent{likelihood: 1})}, 0.4 + 0.6*coherence + length, "Certain human"},
		{[]QualityOption{UsingContentClassifier(fixedContent{likelihood: 0})}, 0.6*coherence + length, "Certain machine"},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			sb, err := newTestScorer(t, tt.opts...).Score(ctx, NewRawBlock(calmSentence, ""))
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(sb.QualityScore-tt.expected) > 1e-9 {
				t.Errorf("expected %.6f, got %.6f", tt.expected, sb.QualityScore)
			}
		})
	}

	human, _ := newTestScorer(t, UsingContentClassifier(fixedContent{likelihood: 1})).Score(ctx, NewRawBlock(calmSentence, ""))
	machine, _ := newTestScorer(t, UsingContentClassifier(fixedContent{likelihood: 0})).Score(ctx, NewRawBlock(calmSentence, ""))
	if delta := human.QualityScore - machine.QualityScore; math.Abs(delta-0.4) > 1e-9 {
		t.Errorf("expected the external weight of 0.4 between extremes, got %.4f", delta)
	}
}
