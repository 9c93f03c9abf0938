package reviewrisk

import (
	"reflect"
	"testing"
)

func TestStopWordFilter(t *testing.T) {
	testCases := []struct {
		language string
		word     string
		isStop   bool
	}{
		{"en", "the", true},
		{"en", "and", true},
		{"en", "breakfast", false},
		{"en", "programming", false},
		{"fr", "le", true},
		{"fr", "programmation", false},
		{"de", "der", true},
		{"de", "programmierung", false},
	}

	for _, tc := range testCases {
		f := newStopWordFilter(tc.language, nil)
		if got := f.isStopWord(tc.word); got != tc.isStop {
			t.Errorf("Language %s: expected %q stop word status %v, got %v", tc.language, tc.word, tc.isStop, got)
		}
		// Cached answers must agree.
		if got := f.isStopWord(tc.word); got != tc.isStop {
			t.Errorf("Language %s: cached status of %q changed", tc.language, tc.word)
		}
	}
}

func TestStopWordFilterExtras(t *testing.T) {
	f := newStopWordFilter("", []string{" Hotel ", "ROOM"})
	if f.lang != "en" {
		t.Errorf("expected the default language en, got %q", f.lang)
	}

	got := f.filter([]string{"the", "hotel", "breakfast", "room", "balcony"})
	want := []string{"breakfast", "balcony"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filter() = %q, want %q", got, want)
	}
}

func TestStopWordFilterKeepsNumbers(t *testing.T) {
	f := newStopWordFilter("en", []string{"2"})
	for _, w := range []string{"101", "24h", "½"} {
		if f.isStopWord(w) {
			t.Errorf("%q should not be a stop word", w)
		}
	}
	if !f.isStopWord("2") {
		t.Error("extra stop words apply to numbers too")
	}

	got := analyze([]string{"room 101 noisy"}, DefaultVectorizerOptions())
	want := [][]string{{"room", "101", "noisy", "room 101", "101 noisy"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("analyze() = %q, want %q", got, want)
	}
}
