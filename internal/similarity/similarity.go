package similarity

import (
	"math"
	"unicode"
)

// belowPerfect is the highest score two distinct strings can reach.
var belowPerfect = math.Nextafter(1, 0)

// Similarity returns the Sørensen-Dice coefficient of the rune bigrams of a
// and b, ignoring whitespace. The result is in [0, 1]; it is 1 exactly when
// a == b. Callers normalize case before scoring.
func Similarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	first := stripSpace(a)
	second := stripSpace(b)
	if len(first) < 2 || len(second) < 2 {
		return 0
	}

	counts := make(map[bigram]int, len(first)-1)
	for i := 0; i < len(first)-1; i++ {
		counts[bigram{first[i], first[i+1]}]++
	}

	intersection := 0
	for i := 0; i < len(second)-1; i++ {
		key := bigram{second[i], second[i+1]}
		if counts[key] > 0 {
			counts[key]--
			intersection++
		}
	}

	score := 2 * float64(intersection) / float64(len(first)+len(second)-2)

	// Different strings can share a bigram multiset ("abacad", "acabad").
	if score >= 1 {
		return belowPerfect
	}
	return score
}

type bigram [2]rune

func stripSpace(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}
