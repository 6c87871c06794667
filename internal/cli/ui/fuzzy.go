package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still suggested
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions
	DefaultMaxSuggestions = 3
)

// FindSimilar returns up to DefaultMaxSuggestions candidates within
// DefaultMaxDistance edits of target, closest first. Matching ignores
// case; ties keep candidate order.
//
// Example:
//
//	FindSimilar("Plcae", []string{"Place", "Transition"}) // ["Place"]
func FindSimilar(target string, candidates []string) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	lower := strings.ToLower(target)
	for _, c := range candidates {
		if c == target {
			continue
		}
		if d := LevenshteinDistance(lower, strings.ToLower(c)); d <= DefaultMaxDistance {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(matches) && i < DefaultMaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// LevenshteinDistance counts the single-rune insertions, deletions and
// substitutions needed to turn s1 into s2
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}

	// one row of the edit matrix at a time
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
