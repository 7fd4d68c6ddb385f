// Package match scores free text against candidate names.
//
// Scores run from 0 to 100. Both sides are folded to lower case with
// diacritics removed and whitespace collapsed before comparison.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for comparison.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	return strings.Join(strings.Fields(folded), " ")
}

// Ratio returns the edit-distance similarity of a and b.
func Ratio(a, b string) int {
	return ratio(Normalize(a), Normalize(b))
}

// TokenSortRatio is Ratio after sorting the words of each side, so word
// order does not count against a match.
func TokenSortRatio(a, b string) int {
	return ratio(sortTokens(Normalize(a)), sortTokens(Normalize(b)))
}

// Score is the better of Ratio and TokenSortRatio.
func Score(a, b string) int {
	return max(Ratio(a, b), TokenSortRatio(a, b))
}

// Best returns the index and score of the candidate scoring highest against
// query. Ties resolve to the earliest candidate. The index is -1 when there
// are no candidates.
func Best(query string, candidates []string) (int, int) {
	best, bestScore := -1, -1
	for i, c := range candidates {
		if s := Score(query, c); s > bestScore {
			best, bestScore = i, s
		}
	}

	if best < 0 {
		return -1, 0
	}

	return best, bestScore
}

func ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}

	dist := levenshtein.ComputeDistance(a, b)

	return (100*(longest-dist) + longest/2) / longest
}

func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)

	return strings.Join(fields, " ")
}
