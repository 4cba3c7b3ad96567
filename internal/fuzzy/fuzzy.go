// Package fuzzy implements the typo-tolerant token matching used to detect
// diagnoses and treatment actions in free-text operator messages.
package fuzzy

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

const (
	// DefaultThreshold is the minimum similarity for two tokens to match.
	// Tokens diverging by up to 20% of their characters still match.
	DefaultThreshold = 0.8

	// DefaultCoverage is the fraction of a phrase's distinct tokens that
	// must match for the phrase to count as present in a text.
	DefaultCoverage = 0.6
)

var params = levenshtein.NewParams()

// Matcher holds the tunable matching parameters.
type Matcher struct {
	Threshold float64
	Coverage  float64
}

// Default returns a Matcher with the default threshold and coverage.
func Default() Matcher {
	return Matcher{Threshold: DefaultThreshold, Coverage: DefaultCoverage}
}

// Similar returns a case-insensitive edit similarity in [0,1].
// Identical strings score 1; the measure is symmetric. A swap of two
// adjacent letters costs one edit, not two.
func Similar(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	return max(levenshtein.Similarity(a, b, params), swapSimilarity(a, b), swapSimilarity(b, a))
}

// swapSimilarity scores a against b after undoing adjacent swaps in a,
// each counted as one edit. It is 0 when there is nothing to undo.
func swapSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	swapped, swaps := unswap(ra, rb)
	if swaps == 0 {
		return 0
	}
	d := swaps + levenshtein.Distance(string(swapped), b, params)
	return max(0, 1-float64(d)/float64(max(len(ra), len(rb))))
}

// unswap undoes, in a copy of a, each adjacent transposition that lines a
// up with b at the same position, and reports how many it undid.
func unswap(a, b []rune) ([]rune, int) {
	out := slices.Clone(a)
	n := 0
	for i := 0; i+1 < len(out) && i+1 < len(b); i++ {
		if out[i] != b[i] && out[i] == b[i+1] && out[i+1] == b[i] {
			out[i], out[i+1] = out[i+1], out[i]
			n++
			i++
		}
	}
	return out, n
}

// Tokenize lowercases s and splits it on any rune that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenMatch reports whether two tokens are similar enough to be treated as equal.
func (m Matcher) TokenMatch(a, b string) bool {
	return Similar(a, b) >= m.Threshold
}

// PhraseHit reports whether phrase occurs in text, allowing typos per token
// and requiring a minimum share of the phrase's distinct tokens to match.
func (m Matcher) PhraseHit(text, phrase string) bool {
	return m.phraseHit(Tokenize(text), phrase)
}

func (m Matcher) phraseHit(textTokens []string, phrase string) bool {
	phraseTokens := dedupe(Tokenize(phrase))
	if len(phraseTokens) == 0 || len(textTokens) == 0 {
		return false
	}

	matched := 0
	for _, pt := range phraseTokens {
		for _, tt := range textTokens {
			if m.TokenMatch(pt, tt) {
				matched++
				break
			}
		}
	}
	return matched >= m.required(len(phraseTokens))
}

// required returns how many distinct tokens of an n-token phrase must match.
func (m Matcher) required(n int) int {
	if n == 1 {
		return 1
	}
	need := int(math.Ceil(float64(n) * m.Coverage))
	return max(1, min(need, n))
}

// TokenOverlapMatch reports whether any phrase occurs in text.
func (m Matcher) TokenOverlapMatch(text string, phrases []string) bool {
	tokens := Tokenize(text)
	for _, p := range phrases {
		if m.phraseHit(tokens, p) {
			return true
		}
	}
	return false
}

// CountKeywordHits returns how many of phrases occur in text.
func (m Matcher) CountKeywordHits(text string, phrases []string) int {
	tokens := Tokenize(text)
	hits := 0
	for _, p := range phrases {
		if m.phraseHit(tokens, p) {
			hits++
		}
	}
	return hits
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
