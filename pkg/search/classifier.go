package search

import (
	"regexp"
	"strings"
)

// Classified is the outcome of query classification: the sanitized text to
// match with, the grammar it was recognized as, and the complexity score.
type Classified struct {
	Raw             string
	Sanitized       string
	Type            QueryType
	MatchAll        bool
	ComplexityScore int
}

// Classifier assigns a QueryType to raw query text and sanitizes it for
// downstream matching.
type Classifier struct {
	qualifierPattern *regexp.Regexp
}

// NewClassifier creates a query classifier.
func NewClassifier() *Classifier {
	return &Classifier{
		// field:value or field:"quoted value"
		qualifierPattern: regexp.MustCompile(`(?i)\b(piece_mark|component_type|description|material_type):("[^"]*"|\S+)`),
	}
}

// Classify sanitizes raw text and assigns a query type. Rules run in
// priority order, first match wins: quoted, boolean, wildcard, complex,
// simple. The bare "*" query is the match-everything sentinel.
func (c *Classifier) Classify(raw string) Classified {
	sanitized := sanitize(raw)

	cl := Classified{
		Raw:       raw,
		Sanitized: sanitized,
	}

	switch {
	case sanitized == "*":
		cl.Type = QueryWildcard
		cl.MatchAll = true
	case isQuoted(sanitized):
		cl.Type = QueryQuoted
	case hasBooleanConnector(sanitized):
		cl.Type = QueryBoolean
	case strings.ContainsAny(sanitized, "*?"):
		cl.Type = QueryWildcard
	case strings.ContainsAny(sanitized, "()") || c.qualifierPattern.MatchString(sanitized):
		cl.Type = QueryComplex
	default:
		cl.Type = QuerySimple
	}

	cl.ComplexityScore = c.complexity(sanitized)
	return cl
}

// sanitize strips HTML angle brackets, trims, and collapses runs of
// whitespace to single spaces.
func sanitize(raw string) string {
	cleaned := strings.NewReplacer("<", "", ">", "").Replace(raw)
	return strings.Join(strings.Fields(cleaned), " ")
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == last && (first == '"' || first == '\'')
}

func hasBooleanConnector(s string) bool {
	for _, tok := range strings.Fields(s) {
		switch strings.ToUpper(tok) {
		case "AND", "OR", "NOT":
			return true
		}
	}
	return false
}

// complexity derives a monotonic score from term count, operator count,
// and parenthesis nesting depth: adding any operator or term never
// decreases it.
func (c *Classifier) complexity(sanitized string) int {
	var terms, operators, depth, cur int

	for _, tok := range strings.Fields(sanitized) {
		trimmed := strings.Trim(tok, "()")
		switch strings.ToUpper(trimmed) {
		case "AND", "OR", "NOT":
			operators++
		case "":
		default:
			terms++
		}
	}

	operators += strings.Count(sanitized, "*") + strings.Count(sanitized, "?")
	operators += len(c.qualifierPattern.FindAllString(sanitized, -1))

	for _, r := range sanitized {
		switch r {
		case '(':
			cur++
			if cur > depth {
				depth = cur
			}
		case ')':
			if cur > 0 {
				cur--
			}
		}
	}

	return terms + 2*operators + 3*depth
}
