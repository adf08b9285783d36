package query

import (
	"fmt"

	"github.com/poiesic/logicsearch/core"
)

// parser is a recursive-descent parser over a token slice.
// It never mutates the slice; pos is the index of the next unread token.
type parser struct {
	tokens []Token
	pos    int
}

// Parse builds an expression tree from tokens.
// Every syntax error wraps core.ErrMalformedQuery.
func Parse(tokens []Token) (Node, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty query", core.ErrMalformedQuery)
	}

	p := &parser{tokens: tokens}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok, ok := p.peek(); ok {
		if tok.Kind == RParen {
			return nil, malformed(p.pos, "unmatched ')'")
		}
		return nil, malformed(p.pos, "unexpected %s, expected an operator", tok)
	}
	return expr, nil
}

// ParseString tokenizes and parses q.
func ParseString(q string) (Node, error) {
	tokens, err := Tokenize(q)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

func (p *parser) parseExpression() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || !tok.isBinary() {
			return left, nil
		}
		p.pos++

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		if tok.Kind == And {
			left = AndExpr{Left: left, Right: right}
		} else {
			left = OrExpr{Left: left, Right: right}
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, malformed(p.pos, "unexpected end of query, expected a term")
	}

	switch tok.Kind {
	case Not:
		p.pos++
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return NotExpr{Operand: operand}, nil
	case LParen:
		open := p.pos
		p.pos++
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if next, ok := p.peek(); !ok || next.Kind != RParen {
			return nil, malformed(open, "unmatched '('")
		}
		p.pos++
		return expr, nil
	case Term:
		p.pos++
		return Literal{Term: tok.Text}, nil
	case RParen:
		return nil, malformed(p.pos, "unexpected ')', expected a term")
	default:
		return nil, malformed(p.pos, "operator %s is missing its left operand", tok)
	}
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func malformed(pos int, format string, args ...any) error {
	return fmt.Errorf("%w: token %d: %s", core.ErrMalformedQuery, pos, fmt.Sprintf(format, args...))
}
