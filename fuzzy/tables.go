package fuzzy

import "strings"

// keyboardRows lists the letter rows of a ЙЦУКЕН keyboard next to the
// QWERTY characters printed on the same keys.
var keyboardRows = []struct {
	latin    string
	cyrillic string
}{
	{latin: "qwertyuiop[]", cyrillic: "йцукенгшщзхъ"},
	{latin: "asdfghjkl;'", cyrillic: "фывапролджэ"},
	{latin: "zxcvbnm,.", cyrillic: "ячсмитьбю"},
}

// keyCodes maps a lower-case rune to the code of the key it is typed on.
// Both layouts share codes, so 'q' and 'й' are the same key.
var keyCodes map[rune]int

// nearKeys maps a key code to the codes of its physical neighbours.
var nearKeys map[int]map[int]bool

var (
	phoneticGroupsRus map[rune]map[rune]bool
	phoneticGroupsEng map[rune]map[rune]bool
)

// transliteration is the Cyrillic to Latin table applied to queries and to
// secondary texts. Runes missing from it pass through unchanged.
var transliteration = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

func init() {
	keyCodes, nearKeys = buildKeyboard()
	phoneticGroupsRus = buildPhoneticGroups("ыий", "эе", "ая", "оёе", "ую", "шщ", "оа")
	phoneticGroupsEng = buildPhoneticGroups("aeiouy", "bp", "ckq", "dt", "lr", "mn", "gj", "fpv", "sxz", "csz")
}

func keyCode(row, col int) int {
	return row*16 + col + 1
}

// buildKeyboard assigns codes row by row. Rows are staggered to the right, so
// a key touches col and col+1 in the row above and col-1 and col in the row below.
func buildKeyboard() (map[rune]int, map[int]map[int]bool) {
	codes := make(map[rune]int)
	widths := make([]int, len(keyboardRows))
	for r, row := range keyboardRows {
		latin := []rune(row.latin)
		cyrillic := []rune(row.cyrillic)
		widths[r] = len(latin)
		for c := range latin {
			codes[latin[c]] = keyCode(r, c)
			if c < len(cyrillic) {
				codes[cyrillic[c]] = keyCode(r, c)
			}
		}
	}

	near := make(map[int]map[int]bool)
	link := func(r, c, nr, nc int) {
		if nr < 0 || nr >= len(widths) || nc < 0 || nc >= widths[nr] {
			return
		}
		code := keyCode(r, c)
		if near[code] == nil {
			near[code] = make(map[int]bool)
		}
		near[code][keyCode(nr, nc)] = true
	}
	for r, width := range widths {
		for c := 0; c < width; c++ {
			link(r, c, r, c-1)
			link(r, c, r, c+1)
			link(r, c, r-1, c)
			link(r, c, r-1, c+1)
			link(r, c, r+1, c-1)
			link(r, c, r+1, c)
		}
	}
	return codes, near
}

// buildPhoneticGroups maps every rune to the other runes sharing a group with
// it. A rune listed in several groups is close to all of their members.
func buildPhoneticGroups(groups ...string) map[rune]map[rune]bool {
	result := make(map[rune]map[rune]bool)
	for _, group := range groups {
		for _, symbol := range group {
			if result[symbol] == nil {
				result[symbol] = make(map[rune]bool)
			}
			for _, other := range group {
				if other != symbol {
					result[symbol][other] = true
				}
			}
		}
	}
	return result
}

// Transliterate converts Cyrillic letters to their Latin spelling. The input
// is expected in lower case; anything not in the table is copied as is.
func Transliterate(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if latin, ok := transliteration[r]; ok {
			sb.WriteString(latin)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
