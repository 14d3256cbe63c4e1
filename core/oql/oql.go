// Package oql parses the object query surface understood by the persistence layer:
//
//	[SELECT <alias>] FROM <EntityName> [[AS] <alias>]
//
// Keywords are case-insensitive, entity names are not. Restrictions, joins and
// projections are not supported.
package oql

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnsupported is returned for any query outside the supported surface.
var ErrUnsupported = errors.New("unsupported query")

// Query is a parsed full-entity query.
type Query struct {
	Entity string
	Alias  string // empty when the query declares none
}

func (q Query) String() string {
	if q.Alias == "" {
		return "FROM " + q.Entity
	}
	return "SELECT " + q.Alias + " FROM " + q.Entity + " " + q.Alias
}

// Parse parses a query string.
func Parse(query string) (Query, error) {
	tokens := strings.Fields(query)
	if n := len(tokens); n > 0 {
		tokens[n-1] = strings.TrimSuffix(tokens[n-1], ";")
		if tokens[n-1] == "" {
			tokens = tokens[:n-1]
		}
	}

	p := parser{query: query, tokens: tokens}
	return p.parse()
}

type parser struct {
	query  string
	tokens []string
	pos    int
}

func (p *parser) parse() (Query, error) {
	var selected string
	if p.keyword("SELECT") {
		alias, err := p.identifier("alias")
		if err != nil {
			return Query{}, err
		}
		selected = alias
	}

	if !p.keyword("FROM") {
		return Query{}, p.errorf("expected FROM")
	}
	entity, err := p.identifier("entity name")
	if err != nil {
		return Query{}, err
	}

	q := Query{Entity: entity}
	if !p.done() {
		p.keyword("AS")
		alias, err := p.identifier("alias")
		if err != nil {
			return Query{}, err
		}
		q.Alias = alias
	}
	if !p.done() {
		return Query{}, p.errorf("unexpected %q", p.tokens[p.pos])
	}

	switch {
	case selected != "" && q.Alias == "":
		return Query{}, p.errorf("selected alias %q is not declared", selected)
	case selected != "" && selected != q.Alias:
		return Query{}, p.errorf("selected alias %q does not match %q", selected, q.Alias)
	}
	return q, nil
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) keyword(kw string) bool {
	if p.done() || !strings.EqualFold(p.tokens[p.pos], kw) {
		return false
	}
	p.pos++
	return true
}

func (p *parser) identifier(what string) (string, error) {
	if p.done() {
		return "", p.errorf("expected %s", what)
	}
	tok := p.tokens[p.pos]
	if !isIdentifier(tok) || isReserved(tok) {
		return "", p.errorf("invalid %s %q", what, tok)
	}
	p.pos++
	return tok, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %q: %s", ErrUnsupported, p.query, fmt.Sprintf(format, args...))
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != ""
}

func isReserved(s string) bool {
	switch strings.ToUpper(s) {
	case "SELECT", "FROM", "AS", "WHERE", "JOIN", "ORDER", "GROUP":
		return true
	}
	return false
}
