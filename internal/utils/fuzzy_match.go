package utils

import (
	"strings"
)

// maxSuggestDistance bounds the edit distance for a suggestion
const maxSuggestDistance = 2

// ClosestMatch finds the candidate a mistyped term most likely meant.
// Tries, in order:
// - Case and whitespace insensitive equality ("collgcr" -> "CollgCr")
// - Unique prefix match ("Somer" -> "Somerst")
// - Smallest edit distance, if within maxSuggestDistance ("NAmse" -> "NAmes")
func ClosestMatch(term string, candidates []string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || len(candidates) == 0 {
		return "", false
	}

	// Exact match, ignoring case
	for _, c := range candidates {
		if strings.ToLower(c) == needle {
			return c, true
		}
	}

	// Prefix match, only when unambiguous
	var prefixed []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), needle) {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], true
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		if d := levenshtein(needle, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// levenshtein computes the edit distance between two strings
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
