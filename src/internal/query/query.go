// Package query implements the filter language remotes send in the query and
// filter request parameters: quoted property comparisons combined with
// (...), + and , .
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrSyntax is returned for queries that do not parse
var ErrSyntax = errors.New("query syntax error")

// Set is a set of collection positions
type Set map[int]struct{}

// Union returns me ∪ other
func (me Set) Union(other Set) Set {
	out := make(Set, len(me)+len(other))
	for p := range me {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Intersect returns me ∩ other
func (me Set) Intersect(other Set) Set {
	small, large := me, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for p := range small {
		if _, ok := large[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out
}

// Diff returns me without the positions in other
func (me Set) Diff(other Set) Set {
	out := make(Set)
	for p := range me {
		if _, ok := other[p]; !ok {
			out[p] = struct{}{}
		}
	}
	return out
}

// Source is what expressions are evaluated against. Values handed to Lookup
// and Scan are normalized the way the source normalizes its index keys
// (integers as int, text as string).
type Source interface {
	// All returns every position
	All() Set
	// HasProperty reports whether the source carries the property at all
	HasProperty(prop string) bool
	// Lookup returns the positions whose property equals value via the
	// index. The second result is false when the value is not indexed.
	Lookup(prop string, value any) (Set, bool)
	// Scan walks all positions and collects those whose property value
	// satisfies match
	Scan(prop string, match func(value any) bool) Set
}

// Expr is a parsed query expression
type Expr interface {
	Eval(src Source) Set
}

// And intersects both operands
type And struct {
	Left, Right Expr
}

// Or unions both operands
type Or struct {
	Left, Right Expr
}

// Equals selects the positions whose property equals the value. Values with
// leading or trailing * match as suffix, prefix or substring via a linear
// scan. A value missing from the index selects nothing.
type Equals struct {
	Prop  string
	Value any
}

// NotEquals selects the complement of the equality hit
type NotEquals struct {
	Prop  string
	Value any
}

func (me And) Eval(src Source) Set {
	return me.Left.Eval(src).Intersect(me.Right.Eval(src))
}

func (me Or) Eval(src Source) Set {
	return me.Left.Eval(src).Union(me.Right.Eval(src))
}

func (me Equals) Eval(src Source) Set {
	// comparisons on properties the source does not carry constrain nothing
	if !src.HasProperty(me.Prop) {
		return src.All()
	}
	if match, ok := wildcard(me.Value); ok {
		return src.Scan(me.Prop, match)
	}
	hits, ok := src.Lookup(me.Prop, me.Value)
	if !ok {
		return Set{}
	}
	return hits
}

func (me NotEquals) Eval(src Source) Set {
	if !src.HasProperty(me.Prop) {
		return src.All()
	}
	if match, ok := wildcard(me.Value); ok {
		return src.Scan(me.Prop, func(v any) bool { return !match(v) })
	}
	hits, ok := src.Lookup(me.Prop, me.Value)
	if !ok {
		return src.All()
	}
	return src.All().Diff(hits)
}

// wildcard returns a match function for string values containing * markers.
// The second result is false for values without wildcards.
func wildcard(value any) (func(any) bool, bool) {
	s, ok := value.(string)
	if !ok || len(s) == 0 {
		return nil, false
	}
	leading := strings.HasPrefix(s, "*")
	trailing := strings.HasSuffix(s, "*") && len(s) > 1
	if !leading && !trailing {
		return nil, false
	}
	needle := strings.Trim(s, "*")
	var cmp func(string) bool
	switch {
	case leading && trailing:
		cmp = func(v string) bool { return strings.Contains(v, needle) }
	case leading:
		cmp = func(v string) bool { return strings.HasSuffix(v, needle) }
	default:
		cmp = func(v string) bool { return strings.HasPrefix(v, needle) }
	}
	return func(v any) bool {
		text, ok := v.(string)
		if !ok {
			return false
		}
		return cmp(text)
	}, true
}

// Parse parses a query string into an expression tree. Spaces arrive
// URL-decoded and are folded back into + before lexing.
func Parse(q string) (Expr, error) {
	lx := &lexer{input: strings.ReplaceAll(q, " ", "+")}
	expr, err := parseGroup(lx)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return nil, errors.Wrap(ErrSyntax, "empty query")
	}
	return expr, nil
}

func parseGroup(lx *lexer) (Expr, error) {
	var current Expr
	for {
		token, err := lx.next()
		if err != nil {
			return nil, err
		}
		switch {
		case token == "" || token == ")":
			return current, nil
		case token == "(":
			current, err = parseGroup(lx)
		case strings.HasPrefix(token, "'"):
			current, err = parseComparison(token)
		case token == "+" || token == ",":
			if current == nil {
				return nil, errors.Wrapf(ErrSyntax, "operator %q without left operand", token)
			}
			var right Expr
			next, err2 := lx.next()
			if err2 != nil {
				return nil, err2
			}
			switch {
			case next == "(":
				right, err = parseGroup(lx)
			case strings.HasPrefix(next, "'"):
				right, err = parseComparison(next)
			default:
				return nil, errors.Wrapf(ErrSyntax, "operator %q must precede a group or comparison", token)
			}
			if err == nil {
				if token == "+" {
					current = And{Left: current, Right: right}
				} else {
					current = Or{Left: current, Right: right}
				}
			}
		default:
			return nil, errors.Wrapf(ErrSyntax, "unexpected token %q", token)
		}
		if err != nil {
			return nil, err
		}
	}
}

// parseComparison splits a quoted 'property:value' or 'property!:value'
// token and decodes the value
func parseComparison(token string) (Expr, error) {
	body := strings.TrimPrefix(strings.TrimSuffix(token, "'"), "'")
	prop, op, raw, err := splitComparison(body)
	if err != nil {
		return nil, err
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "bad value escape in %q", raw)
	}
	value := promote(decoded)
	if op == "!:" {
		return NotEquals{Prop: prop, Value: value}, nil
	}
	return Equals{Prop: prop, Value: value}, nil
}

func splitComparison(body string) (prop, op, value string, err error) {
	i := strings.Index(body, ":")
	if i < 1 {
		err = errors.Wrapf(ErrSyntax, "comparison %q has no operator", body)
		return
	}
	if body[i-1] == '!' && i > 1 {
		return body[:i-1], "!:", body[i+1:], nil
	}
	return body[:i], ":", body[i+1:], nil
}

// promote turns numeric strings into ints, trying base 10 then 16
func promote(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if hex != "" && hex != s {
		if n, err := strconv.ParseInt(hex, 16, 64); err == nil {
			return int(n)
		}
	}
	if n, err := strconv.ParseInt(s, 16, 64); err == nil {
		return int(n)
	}
	return s
}
