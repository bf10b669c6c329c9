package search

import (
	"sort"
	"strings"
)

// scoreComponent assigns a relevance score to a matched component. The best
// scoring scope field wins. Matched components never score below the floor,
// so boolean hits with no literal term overlap still rank above nothing.
func scoreComponent(r *Result, classified Classified, scopes []ScopeField) float64 {
	if classified.MatchAll {
		return matchFloor
	}
	best := matchFloor
	for _, term := range scoringTerms(classified) {
		for _, field := range scopes {
			if s := scoreField(FieldText(r.Component, field), term); s > best {
				best = s
			}
		}
	}
	return best
}

const matchFloor = 0.1

// scoringTerms extracts the literal terms used for relevance scoring,
// stripping operators, qualifiers and wildcard metacharacters.
func scoringTerms(c Classified) []string {
	raw := strings.Trim(c.Sanitized, `"'`)
	var terms []string
	for _, tok := range tokenize(raw) {
		switch {
		case tok == "(" || tok == ")":
			continue
		case strings.EqualFold(tok, "AND") || strings.EqualFold(tok, "OR") || strings.EqualFold(tok, "NOT"):
			continue
		}
		if _, value, found := strings.Cut(tok, ":"); found {
			tok = value
		}
		tok = strings.Trim(strings.TrimFunc(tok, func(r rune) bool {
			return r == '*' || r == '?'
		}), `"'`)
		if tok != "" {
			terms = append(terms, tok)
		}
	}
	return terms
}

// scoreField implements the tiered relevance model: exact field match,
// then prefix, then substring weighted by how early the term appears.
func scoreField(text, term string) float64 {
	lt, lq := strings.ToLower(text), strings.ToLower(term)
	if lt == "" || lq == "" {
		return 0
	}
	if lt == lq {
		return 1.0
	}
	if strings.HasPrefix(lt, lq) {
		return 0.8
	}
	// substring hits land in (0.2, 0.5], earlier positions scoring higher
	if idx := strings.Index(lt, lq); idx >= 0 {
		return 0.5 - 0.3*float64(idx)/float64(len(lt))
	}
	return 0
}

// Rank orders results for the requested sort. Relevance puts the highest
// score first, date the newest updated_at first and name sorts piece marks
// A to Z; OrderAsc/OrderDesc invert the primary key only. Ties always
// break by updated_at descending then piece mark ascending so identical
// requests return identical orderings.
func Rank(results []Result, sortBy, sortOrder string) {
	invert := false
	switch sortBy {
	case SortName:
		invert = sortOrder == OrderDesc
	default:
		invert = sortOrder == OrderAsc
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch sortBy {
		case SortDate:
			if !a.Component.UpdatedAt.Equal(b.Component.UpdatedAt) {
				return a.Component.UpdatedAt.After(b.Component.UpdatedAt) != invert
			}
		case SortName:
			if a.Component.PieceMark != b.Component.PieceMark {
				return (a.Component.PieceMark < b.Component.PieceMark) != invert
			}
		default:
			if a.Score != b.Score {
				return (a.Score > b.Score) != invert
			}
		}
		if !a.Component.UpdatedAt.Equal(b.Component.UpdatedAt) {
			return a.Component.UpdatedAt.After(b.Component.UpdatedAt)
		}
		return a.Component.PieceMark < b.Component.PieceMark
	})
}

// Paginate slices a ranked result set for a 1-indexed page.
func Paginate(results []Result, page, limit int) []Result {
	start := (page - 1) * limit
	if start >= len(results) {
		return []Result{}
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}
