package query

import "github.com/pkg/errors"

// lexer yields the token stream of a query: single character punctuation,
// and quoted comparisons as one token including their quotes
type lexer struct {
	input string
	pos   int
}

// next returns the next token, or "" at the end of input
func (me *lexer) next() (string, error) {
	if me.pos >= len(me.input) {
		return "", nil
	}
	c := me.input[me.pos]
	switch c {
	case '(', ')', '+', ',':
		me.pos++
		return string(c), nil
	case '\'':
		end := me.pos + 1
		for end < len(me.input) && me.input[end] != '\'' {
			end++
		}
		if end == len(me.input) {
			return "", errors.Wrap(ErrSyntax, "no closing quote")
		}
		token := me.input[me.pos : end+1]
		me.pos = end + 1
		return token, nil
	}
	return "", errors.Wrapf(ErrSyntax, "unexpected character %q", string(c))
}
