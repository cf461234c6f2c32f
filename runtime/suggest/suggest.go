// Package suggest produces "did you mean" hints and completion rankings for
// the fixed vocabularies of the template language: block names, @-tags,
// directive prefixes and modifiers.
package suggest

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Closest returns the candidate closest to target, or "" when nothing is
// close enough to be worth suggesting.
//
// A typo touching at most half of the target wins first ("onse" suggests
// "once", "eahc" suggests "each"). Otherwise the best candidate containing
// target as a fuzzy subsequence is used ("prev" suggests "preventDefault").
func Closest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	best, bestDist := "", maxDistance(target)+1
	lower := strings.ToLower(target)
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != "" {
		return best
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	return ""
}

func maxDistance(target string) int {
	if n := (len(target) + 1) / 2; n > 1 {
		return n
	}
	return 1
}

// Rank filters candidates to those matching prefix and orders them best
// first. An empty prefix returns every candidate in its original order.
func Rank(prefix string, candidates []string) []string {
	if prefix == "" {
		return append([]string(nil), candidates...)
	}
	ranks := fuzzy.RankFindFold(prefix, candidates)
	sort.Stable(ranks)

	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}

// Hint formats a suggestion for a diagnostic, or "" when there is none.
func Hint(target string, candidates []string) string {
	if c := Closest(target, candidates); c != "" && c != target {
		return "did you mean '" + c + "'?"
	}
	return ""
}
