package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]+`)
var spaces = regexp.MustCompile(`\s+`)

// Normalize lowercases s, strips accents and collapses everything that is not a letter
// or digit into single spaces.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	out = nonAlnum.ReplaceAllString(out, " ")
	out = spaces.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func ratio(a, b []rune) float64 {
	if string(a) == string(b) {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(max(len(a), len(b)))
}

// Similarity scores two descriptions in [0,1]. The Levenshtein ratio of the normalized
// strings gets a bonus when one contains the other (at least 3 runes) or, failing that,
// when both start with the same word of at least 4 runes.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	ra, rb := []rune(na), []rune(nb)
	score := ratio(ra, rb)

	longer, shorter := na, nb
	if len(ra) <= len(rb) {
		longer, shorter = nb, na
	}
	shortLen, longLen := len([]rune(shorter)), len([]rune(longer))
	if shortLen >= 3 && strings.Contains(longer, shorter) {
		return min(1, score+float64(shortLen)/float64(longLen)*0.3)
	}

	fa, fb := firstWord(na), firstWord(nb)
	if fa != "" && fa == fb && len([]rune(fa)) >= 4 {
		return min(1, score+0.15)
	}
	return score
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
