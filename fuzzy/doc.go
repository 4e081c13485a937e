// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package fuzzy ranks a corpus of text pairs against a query using a weighted
// Damerau-Levenshtein distance tuned for Russian and English names.
//
// Every candidate carries two forms of the same text: a primary form (usually
// Cyrillic) and a secondary form (usually its Latin spelling). The query is
// compared as typed and after Cyrillic to Latin transliteration, against both
// forms, and the cheapest of the four comparisons wins.
//
// # Cost model
//
// Costs are integers in units of 2 per edit:
//   - insertion and deletion cost 2, or 1 on the last row of a partial-word window
//   - substitution costs 0 for equal runes or runes on the same physical key,
//     1 for adjacent keys or runes in the same phonetic group, 2 otherwise
//   - an adjacent transposition costs 2
//
// When the transliterated query is scored, substitutions are flat: 0 or 2.
//
// A query word is slid across each source word in windows one rune longer than
// the query word, so "водкин" finds "петров-водкин". Each window offset adds
// 0.2. At the phrase level every query word picks its cheapest source word;
// word costs are multiplied by 100 and the index distance between the two
// words adds a tenth per position.
//
// # Usage
//
//	m, err := fuzzy.NewMatcher()
//	if err != nil {
//	    return err
//	}
//	if err := m.LoadCorpus([]fuzzy.Candidate{{Primary: "Иванов", Secondary: "Ivanov"}}); err != nil {
//	    return err
//	}
//	hits := fuzzy.Matches(m.Search("иванв"), fuzzy.DefaultThreshold)
//
// # Thread Safety
//
// A Matcher may be searched from many goroutines. LoadCorpus takes an
// exclusive lock and replaces the corpus wholesale.
package fuzzy
