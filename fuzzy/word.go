package fuzzy

import (
	"strings"
	"unicode"
)

// word is a lower-cased token with one key code per rune.
type word struct {
	text  []rune
	codes []int
}

// phrase is the ordered list of words of one text.
type phrase []word

// languageSet holds both tokenized forms of a candidate and the strings
// reported back in results.
type languageSet struct {
	primary         phrase
	secondary       phrase
	primaryOriginal string
	secondaryOutput string
}

func newWord(text string) word {
	runes := []rune(text)
	w := word{
		text:  make([]rune, len(runes)),
		codes: make([]int, len(runes)),
	}
	for i, r := range runes {
		lower := unicode.ToLower(r)
		w.text[i] = lower
		w.codes[i] = keyCodes[lower]
	}
	return w
}

// window returns the part of w starting at offset with the given length.
// The slices are shared with w.
func (w word) window(offset, length int) word {
	return word{
		text:  w.text[offset : offset+length],
		codes: w.codes[offset : offset+length],
	}
}

func (p phrase) totalLength() int {
	total := 0
	for _, w := range p {
		total += len(w.text)
	}
	return total
}

type tokenizer struct {
	separators map[rune]bool
}

func newTokenizer(separators []rune) tokenizer {
	set := make(map[rune]bool, len(separators))
	for _, r := range separators {
		set[r] = true
	}
	return tokenizer{separators: set}
}

func (t tokenizer) isSeparator(r rune) bool {
	return t.separators[r]
}

// split cuts text on separators, dropping empty pieces.
func (t tokenizer) split(text string) []string {
	return strings.FieldsFunc(text, t.isSeparator)
}

func (t tokenizer) phrase(text string) phrase {
	parts := t.split(text)
	p := make(phrase, 0, len(parts))
	for _, part := range parts {
		p = append(p, newWord(part))
	}
	return p
}

// transliteratedPhrase lower-cases each word before transliterating it and
// computes key codes on the Latin spelling.
func (t tokenizer) transliteratedPhrase(text string) phrase {
	parts := t.split(text)
	p := make(phrase, 0, len(parts))
	for _, part := range parts {
		p = append(p, newWord(Transliterate(strings.ToLower(part))))
	}
	return p
}
