package fuzzy

import (
	"math"
)

const (
	// editCost is the price of one inserted, deleted or substituted rune.
	editCost = 2
	// nearCost is the price of substituting a neighbouring key or a phonetically close rune.
	nearCost = 1
	// phraseWeight scales word distances when summing a phrase.
	phraseWeight = 100
)

// Distance returns the edit cost between two whole words using the lenient
// substitution costs. Both words are lower-cased first.
func Distance(source, target string) int {
	return levenshtein(newWord(source), newWord(target), true, false)
}

// substitutionCost prices replacing source.text[sp] with target.text[tp].
func substitutionCost(source word, sp int, target word, tp int, translation bool) int {
	s, t := source.text[sp], target.text[tp]
	if s == t {
		return 0
	}
	if translation {
		return editCost
	}
	sc, tc := source.codes[sp], target.codes[tp]
	if sc != 0 && sc == tc {
		return 0
	}

	cost := editCost
	if near, ok := nearKeys[sc]; ok && near[tc] {
		cost = nearCost
	}
	if group, ok := phoneticGroupsRus[t]; ok && group[s] {
		cost = min(cost, nearCost)
	}
	if group, ok := phoneticGroupsEng[t]; ok && group[s] {
		cost = min(cost, nearCost)
	}
	return cost
}

// levenshtein computes the weighted Damerau-Levenshtein distance keeping three
// rows alive: the current one, the previous one and the one before it for
// transpositions. When fullWord is false the source is a window cut out of a
// longer word and edits on its last row are half price.
func levenshtein(source, target word, fullWord, translation bool) int {
	n, m := len(source.text), len(target.text)
	if n == 0 {
		return m * editCost
	}
	if m == 0 {
		return n * editCost
	}

	var rows [3][]int
	for k := range rows {
		rows[k] = make([]int, m+1)
	}
	for j := 1; j <= m; j++ {
		rows[0][j] = j * editCost
	}

	current := 0
	for i := 1; i <= n; i++ {
		current = i % 3
		previous := (i - 1) % 3
		cur, prev := rows[current], rows[previous]

		edgeCost := editCost
		if !fullWord && i == n {
			edgeCost = editCost - 1
		}

		cur[0] = i * editCost
		for j := 1; j <= m; j++ {
			best := min(
				prev[j]+edgeCost,
				cur[j-1]+edgeCost,
				prev[j-1]+substitutionCost(source, i-1, target, j-1, translation),
			)
			if i > 1 && j > 1 &&
				source.text[i-1] == target.text[j-2] &&
				source.text[i-2] == target.text[j-1] {
				best = min(best, rows[(i-2)%3][j-2]+editCost)
			}
			cur[j] = best
		}
	}
	return rows[current][m]
}

// wordDistance slides windows of the target's length plus one across the
// source and keeps the cheapest, adding 0.2 per offset.
func wordDistance(source, target word, translation bool) float64 {
	n := len(source.text)
	length := min(n, len(target.text)+1)
	minDistance := math.MaxFloat64
	for offset := 0; offset <= n-length; offset++ {
		window := source.window(offset, length)
		d := float64(levenshtein(window, target, length == n, translation)) + float64(offset*2)/10.0
		minDistance = math.Min(minDistance, d)
	}
	return minDistance
}

// phraseDistance assigns every search word to its cheapest source word. The
// assignment is greedy: source words may be reused and the order of the
// search words does not matter beyond the index penalty.
func phraseDistance(source, search phrase, translation bool) float64 {
	if len(source) == 0 {
		if len(search) == 0 {
			return 0
		}
		return float64(search.totalLength() * editCost * phraseWeight)
	}
	if len(search) == 0 {
		return float64(source.totalLength() * editCost * phraseWeight)
	}

	result := 0.0
	for i, target := range search {
		minRange := math.MaxFloat64
		minIndex := 0
		for j, candidate := range source {
			d := wordDistance(candidate, target, translation)
			if d < minRange {
				minRange = d
				minIndex = j
			}
		}
		result += minRange*phraseWeight + math.Abs(float64(i-minIndex))/10.0
	}
	return result
}
