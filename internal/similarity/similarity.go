// Package similarity provides the fuzzy string comparison used to score
// fetched page content against parsed references. The single entry point
// Score keeps the algorithm swappable without touching callers.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops combining marks, so that
// "Müller" and "Muller" compare equal.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, strips diacritics and punctuation, and collapses
// whitespace runs to single spaces. Both sides of a comparison go through
// the same normalization.
func Normalize(s string) string {
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Score returns a 0..100 partial-ratio similarity between a and b. The
// shorter string is slid over the longer one and the best window ratio
// wins, so a reference title embedded in a branded page title still
// scores high. Two empty strings score 100; one empty string scores 0.
func Score(a, b string) int {
	na := []rune(Normalize(a))
	nb := []rune(Normalize(b))
	if len(na) == 0 && len(nb) == 0 {
		return 100
	}
	if len(na) == 0 || len(nb) == 0 {
		return 0
	}
	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}
	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(short, long[i:i+len(short)])
		if r > best {
			best = r
		}
		if best == 100 {
			break
		}
	}
	return best
}

// ratio converts edit distance between equal-intent strings to 0..100.
func ratio(a, b []rune) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	d := levenshtein(a, b)
	return int(float64(maxLen-d) / float64(maxLen) * 100.0)
}

// levenshtein computes edit distance with the two-row space optimization.
func levenshtein(a, b []rune) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	m, n := len(a), len(b)
	if m == 0 {
		return n
	}
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for i := 0; i <= m; i++ {
		prev[i] = i
	}
	for j := 1; j <= n; j++ {
		curr[0] = j
		for i := 1; i <= m; i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[i] = min3(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
