package fuzzy

import (
	"slices"
	"sort"
	"strings"
	"sync"
)

// DefaultThreshold is the allowed mistake distance callers usually filter
// results with. Three hundred admits roughly one and a half wrong letters in
// a single word.
const DefaultThreshold = 300

// DefaultSeparators split texts into words.
const DefaultSeparators = " -"

// Variant tells which comparison produced the cost of a result.
type Variant int

const (
	// PrimaryMatch is the query as typed against the primary form.
	PrimaryMatch Variant = iota + 1
	// TransliteratedMatch is the transliterated query against the primary form.
	TransliteratedMatch
	// SecondaryMatch is either query form against the secondary form.
	SecondaryMatch
)

func (v Variant) String() string {
	switch v {
	case PrimaryMatch:
		return "primary"
	case TransliteratedMatch:
		return "transliterated"
	case SecondaryMatch:
		return "secondary"
	default:
		return "unknown"
	}
}

// Candidate is one searchable text pair. Secondary may repeat Primary when
// only one spelling is known.
type Candidate struct {
	Primary   string
	Secondary string
}

// Result is the score of one candidate.
type Result struct {
	// Index is the position of the candidate in the loaded corpus.
	Index int
	// Primary is the lower-cased primary text.
	Primary string
	// Secondary is the lower-cased, transliterated secondary text.
	Secondary string
	Cost      float64
	Variant   Variant
}

// Matcher scores a loaded corpus against queries.
type Matcher struct {
	mu        sync.RWMutex
	tokenizer tokenizer
	corpus    []languageSet
}

// Option configures a Matcher.
type Option func(*matcherOptions) error

type matcherOptions struct {
	separators []rune
}

// WithSeparators replaces the default word separators.
func WithSeparators(separators ...rune) Option {
	return func(o *matcherOptions) error {
		if len(separators) == 0 {
			return ErrNoSeparators
		}
		o.separators = slices.Clone(separators)
		return nil
	}
}

// NewMatcher creates a matcher with an empty corpus.
func NewMatcher(opts ...Option) (*Matcher, error) {
	options := &matcherOptions{separators: []rune(DefaultSeparators)}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return &Matcher{tokenizer: newTokenizer(options.separators)}, nil
}

// LoadCorpus tokenizes the candidates and replaces the current corpus.
func (m *Matcher) LoadCorpus(candidates []Candidate) error {
	if candidates == nil {
		return ErrNilCorpus
	}

	corpus := make([]languageSet, len(candidates))
	for i, c := range candidates {
		corpus[i] = languageSet{
			primary:         m.tokenizer.phrase(c.Primary),
			secondary:       m.tokenizer.phrase(c.Secondary),
			primaryOriginal: c.Primary,
			secondaryOutput: Transliterate(strings.ToLower(c.Secondary)),
		}
	}

	m.mu.Lock()
	m.corpus = corpus
	m.mu.Unlock()
	return nil
}

// Len returns the number of loaded candidates.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.corpus)
}

// Search scores every candidate against query and returns them cheapest
// first. Candidates with equal cost keep their corpus order.
func (m *Matcher) Search(query string) []Result {
	asTyped := m.tokenizer.phrase(query)
	transliterated := m.tokenizer.transliteratedPhrase(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Result, 0, len(m.corpus))
	for i, set := range m.corpus {
		cost, variant := score(set, asTyped, transliterated)
		results = append(results, Result{
			Index:     i,
			Primary:   strings.ToLower(set.primaryOriginal),
			Secondary: set.secondaryOutput,
			Cost:      cost,
			Variant:   variant,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Cost < results[j].Cost
	})
	return results
}

// score evaluates the four comparisons in a fixed order; a later comparison
// only wins when it is strictly cheaper.
func score(set languageSet, asTyped, transliterated phrase) (float64, Variant) {
	cost := phraseDistance(set.primary, asTyped, false)
	variant := PrimaryMatch

	if c := phraseDistance(set.secondary, asTyped, false); c < cost {
		cost, variant = c, SecondaryMatch
	}
	if c := phraseDistance(set.primary, transliterated, true); c < cost {
		cost, variant = c, TransliteratedMatch
	}
	if c := phraseDistance(set.secondary, transliterated, true); c < cost {
		cost, variant = c, SecondaryMatch
	}
	return cost, variant
}

// Matches keeps the results whose cost does not exceed threshold.
func Matches(results []Result, threshold float64) []Result {
	matched := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Cost <= threshold {
			matched = append(matched, r)
		}
	}
	return matched
}
