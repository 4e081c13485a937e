package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_Identity(t *testing.T) {
	for _, s := range []string{"a", "иванов", "Petrov", "петров-водкин", "ghbdtn"} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, 0, Distance(s, s))
		})
	}
}

func TestDistance_Empty(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   int
	}{
		{"both empty", "", "", 0},
		{"empty target", "abc", "", 6},
		{"empty source", "", "abcd", 8},
		{"empty target cyrillic", "иванов", "", 12},
		{"empty source cyrillic", "", "иванов", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.source, tt.target))
		})
	}
}

func TestDistance_Costs(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   int
	}{
		{"phonetic vowel", "ивонов", "иванов", 1},
		{"unrelated letter", "иванов", "ибанов", 2},
		{"adjacent transposition", "иваонв", "иванов", 2},
		{"swapped pair", "ab", "ba", 2},
		{"wrong keyboard layout", "привет", "ghbdtn", 0},
		{"case is ignored", "ИВАНОВ", "иванов", 0},
		{"one deletion", "водкина", "водкин", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.source, tt.target))
		})
	}
}

func TestSubstitutionCost(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		target      string
		translation bool
		want        int
	}{
		{"same rune", "a", "a", false, 0},
		{"same rune in translation", "a", "a", true, 0},
		{"neighbouring keys", "s", "a", false, 1},
		{"neighbouring keys in translation", "s", "a", true, 2},
		{"same key other layout", "ф", "a", false, 0},
		{"same key other layout in translation", "ф", "a", true, 2},
		{"cyrillic phonetic group", "о", "а", false, 1},
		{"latin phonetic group", "t", "d", false, 1},
		{"latin phonetic group in translation", "t", "d", true, 2},
		{"far apart", "q", "m", false, 2},
		{"no key code", "1", "2", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substitutionCost(newWord(tt.source), 0, newWord(tt.target), 0, tt.translation)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevenshtein_TranslationIsFlat(t *testing.T) {
	// о and а share a phonetic group; translation mode must not care.
	assert.Equal(t, 1, levenshtein(newWord("ивонов"), newWord("иванов"), true, false))
	assert.Equal(t, 2, levenshtein(newWord("ивонов"), newWord("иванов"), true, true))

	// Same physical key in both layouts.
	assert.Equal(t, 0, levenshtein(newWord("привет"), newWord("ghbdtn"), true, false))
	assert.Equal(t, 12, levenshtein(newWord("привет"), newWord("ghbdtn"), true, true))
}

func TestLevenshtein_PartialWindowEdge(t *testing.T) {
	// The trailing rune of a window is dropped at half price.
	assert.Equal(t, 1, levenshtein(newWord("водк"), newWord("вод"), false, false))
	assert.Equal(t, 2, levenshtein(newWord("водк"), newWord("вод"), true, false))
}

func TestWordDistance(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   float64
	}{
		{"identical", "водкин", "водкин", 0},
		{"prefix window", "водкин", "вод", 1},
		{"suffix window pays offset", "водкин", "кин", 2.4},
		{"different words", "петров", "водкин", 11},
		{"longer target", "вод", "водкин", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wordDistance(newWord(tt.source), newWord(tt.target), false)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestWordDistance_SubstringNeverFullMismatch(t *testing.T) {
	source := newWord("петроводкин")
	target := newWord("водкин")
	full := float64(levenshtein(source, target, true, false))

	got := wordDistance(source, target, false)
	assert.Less(t, got, full)
	// One edge deletion plus the offset of the window.
	assert.LessOrEqual(t, got, 1+float64(len(source.text))*0.2)
}

func TestPhraseDistance_Empty(t *testing.T) {
	tok := newTokenizer([]rune(DefaultSeparators))

	assert.Equal(t, 0.0, phraseDistance(nil, nil, false))
	assert.Equal(t, 800.0, phraseDistance(tok.phrase("ab cd"), nil, false))
	assert.Equal(t, 600.0, phraseDistance(nil, tok.phrase("abc"), true))
}

func TestPhraseDistance_IndexPenalty(t *testing.T) {
	tok := newTokenizer([]rune(DefaultSeparators))
	source := tok.phrase("петров-водкин")

	assert.InDelta(t, 0.1, phraseDistance(source, tok.phrase("водкин"), false), 1e-9)
	assert.InDelta(t, 0.0, phraseDistance(source, tok.phrase("петров"), false), 1e-9)
	assert.InDelta(t, 0.0, phraseDistance(source, tok.phrase("петров водкин"), false), 1e-9)
}

func TestPhraseDistance_GreedyReuse(t *testing.T) {
	tok := newTokenizer([]rune(DefaultSeparators))

	// Both query words land on the single source word.
	got := phraseDistance(tok.phrase("иванов"), tok.phrase("иванов иванов"), false)
	assert.InDelta(t, 0.1, got, 1e-9)
}
