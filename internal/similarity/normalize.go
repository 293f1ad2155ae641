package similarity

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Mode selects how names are normalized before scoring
type Mode string

const (
	// ModeLowercase only lowercases (default)
	ModeLowercase Mode = "lowercase"
	// ModeFold lowercases and strips combining marks (Élodie -> elodie)
	ModeFold Mode = "fold"
)

// Normalizer transforms a name before it is scored
type Normalizer func(string) string

// NormalizeLowercase lowercases s
func NormalizeLowercase(s string) string {
	return strings.ToLower(s)
}

// NormalizeFold lowercases s and removes accents
func NormalizeFold(s string) string {
	// transform.Chain keeps state, so each call builds its own chain.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(fold, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return result
}

// ParseMode validates a configured mode. Empty selects ModeLowercase.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLowercase:
		return ModeLowercase, nil
	case ModeFold:
		return ModeFold, nil
	default:
		return "", fmt.Errorf("unknown normalization mode %q", s)
	}
}

// NormalizerFor returns the normalizer for mode
func NormalizerFor(mode Mode) Normalizer {
	if mode == ModeFold {
		return NormalizeFold
	}
	return NormalizeLowercase
}
