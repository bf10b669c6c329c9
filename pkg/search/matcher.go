package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/buildsight/marksearch/pkg/model"
)

// Matcher is the compiled predicate for one classified query. A component
// matches when any field in the active scope set matches; structured
// filters are applied upstream by the store.
type Matcher struct {
	classified Classified
	fuzzy      bool

	needle  string         // simple/quoted
	pattern *regexp.Regexp // wildcard
	expr    exprNode       // boolean/complex
}

// NewMatcher compiles a matcher for the classified query. The fuzzy flag
// relaxes simple matching only; it never affects other grammars.
func NewMatcher(c Classified, fuzzy bool) (*Matcher, error) {
	m := &Matcher{classified: c, fuzzy: fuzzy}
	if c.MatchAll {
		return m, nil
	}

	switch c.Type {
	case QuerySimple:
		m.needle = c.Sanitized
	case QueryQuoted:
		m.needle = strings.Trim(c.Sanitized, `"'`)
	case QueryWildcard:
		pattern, err := wildcardRegexp(c.Sanitized)
		if err != nil {
			return nil, fmt.Errorf("failed to compile wildcard pattern: %w", err)
		}
		m.pattern = pattern
	case QueryBoolean, QueryComplex:
		expr, err := parseExpr(c.Sanitized)
		if err != nil {
			return nil, fmt.Errorf("failed to parse query expression: %w", err)
		}
		m.expr = expr
	default:
		return nil, fmt.Errorf("unknown query type: %q", c.Type)
	}
	return m, nil
}

// MatchComponent reports whether any scope field matches.
func (m *Matcher) MatchComponent(c *model.Component, scopes []ScopeField) bool {
	for _, field := range scopes {
		if m.MatchField(c, field) {
			return true
		}
	}
	return false
}

// MatchField reports whether a single scope field matches. The sentinel
// "*" query matches unconditionally, irrespective of scope or fuzziness.
func (m *Matcher) MatchField(c *model.Component, field ScopeField) bool {
	if m.classified.MatchAll {
		return true
	}

	text := FieldText(c, field)
	switch m.classified.Type {
	case QuerySimple:
		if containsFold(text, m.needle) {
			return true
		}
		return m.fuzzy && fuzzyPhraseMatch(text, m.needle)
	case QueryQuoted:
		return containsFold(text, m.needle)
	case QueryWildcard:
		return m.pattern.MatchString(text)
	case QueryBoolean, QueryComplex:
		return m.expr.eval(text, c)
	}
	return false
}

func containsFold(text, needle string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}

// wildcardRegexp translates a `*`/`?` pattern into an anchored
// case-insensitive regexp: `*` matches zero or more characters, `?`
// exactly one.
func wildcardRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?i)^`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

// --- expression grammar for boolean and complex queries ---
//
//	expr    := orExpr
//	orExpr  := andExpr (OR andExpr)*
//	andExpr := unary ((AND)? unary)*       adjacency is implicit AND
//	unary   := NOT unary | primary
//	primary := '(' expr ')' | field ':' term | term
//
// Bare terms evaluate against the scope field under test; qualified terms
// always evaluate against the named component field.

type exprNode interface {
	eval(fieldText string, c *model.Component) bool
}

type termNode struct {
	needle  string
	pattern *regexp.Regexp // set when the term carries wildcards
}

func newTermNode(term string) (termNode, error) {
	term = strings.Trim(term, `"'`)
	if strings.ContainsAny(term, "*?") {
		pattern, err := wildcardRegexp(term)
		if err != nil {
			return termNode{}, err
		}
		return termNode{pattern: pattern}, nil
	}
	return termNode{needle: term}, nil
}

func (n termNode) eval(fieldText string, _ *model.Component) bool {
	if n.pattern != nil {
		return n.pattern.MatchString(fieldText)
	}
	return containsFold(fieldText, n.needle)
}

type qualNode struct {
	field string
	term  termNode
}

func (n qualNode) eval(_ string, c *model.Component) bool {
	var text string
	switch n.field {
	case "piece_mark":
		text = c.PieceMark
	case "component_type":
		text = c.ComponentType
	case "description":
		text = c.Description
	case "material_type":
		text = c.MaterialType
	}
	return n.term.eval(text, c)
}

type notNode struct{ inner exprNode }

func (n notNode) eval(fieldText string, c *model.Component) bool {
	return !n.inner.eval(fieldText, c)
}

type andNode struct{ children []exprNode }

func (n andNode) eval(fieldText string, c *model.Component) bool {
	for _, child := range n.children {
		if !child.eval(fieldText, c) {
			return false
		}
	}
	return true
}

type orNode struct{ children []exprNode }

func (n orNode) eval(fieldText string, c *model.Component) bool {
	for _, child := range n.children {
		if child.eval(fieldText, c) {
			return true
		}
	}
	return false
}

type exprParser struct {
	tokens []string
	pos    int
}

func parseExpr(input string) (exprNode, error) {
	tokens := tokenize(input)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	p := &exprParser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q", p.tokens[p.pos])
	}
	return node, nil
}

// tokenize splits on whitespace, keeping parentheses as their own tokens
// and double-quoted phrases intact.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range input {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func (p *exprParser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *exprParser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []exprNode{left}
	for {
		tok, ok := p.peek()
		if !ok || !strings.EqualFold(tok, "OR") {
			break
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return orNode{children: children}, nil
}

func (p *exprParser) parseAnd() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []exprNode{left}
	for {
		tok, ok := p.peek()
		if !ok || tok == ")" || strings.EqualFold(tok, "OR") {
			break
		}
		if strings.EqualFold(tok, "AND") {
			p.pos++
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return andNode{children: children}, nil
}

func (p *exprParser) parseUnary() (exprNode, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if strings.EqualFold(tok, "NOT") {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if tok == "(" {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	}
	if tok == ")" {
		return nil, fmt.Errorf("unexpected closing parenthesis")
	}
	p.pos++

	if field, value, found := strings.Cut(tok, ":"); found {
		switch field {
		case "piece_mark", "component_type", "description", "material_type":
			term, err := newTermNode(value)
			if err != nil {
				return nil, err
			}
			return qualNode{field: field, term: term}, nil
		}
	}
	return newTermNode(tok)
}
