package search

import (
	"strings"
	"unicode"
)

// fuzzyThreshold returns the maximum edit distance tolerated for a term.
// Short marks like "W12" get a tight bound so "W14" doesn't bleed in with
// more slack than a single transcription slip.
func fuzzyThreshold(term string) int {
	if len([]rune(term)) < 6 {
		return 1
	}
	return 2
}

// fuzzyPhraseMatch reports whether every token of the needle matches some
// token of the text within its edit-distance budget. Exact substring hits
// are handled by the caller, so this only widens the result set.
func fuzzyPhraseMatch(text, needle string) bool {
	queryTokens := splitTokens(needle)
	if len(queryTokens) == 0 {
		return false
	}
	textTokens := splitTokens(text)

	for _, qt := range queryTokens {
		matched := false
		threshold := fuzzyThreshold(qt)
		for _, tt := range textTokens {
			if strings.Contains(tt, qt) || withinEditDistance(qt, tt, threshold) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// withinEditDistance computes a banded Levenshtein distance and reports
// whether it stays at or below max. The band lets it bail out early on
// hopeless pairs instead of filling the full matrix.
func withinEditDistance(a, b string, max int) bool {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la-lb > max || lb-la > max {
		return false
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if cur[j] < rowMin {
				rowMin = cur[j]
			}
		}
		if rowMin > max {
			return false
		}
		prev, cur = cur, prev
	}
	return prev[lb] <= max
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
