package query

import (
	"fmt"

	"github.com/poiesic/logicsearch/core"
)

// binding strength of each operator on the operator stack.
// AND and OR share a level so they reduce left to right.
var precedence = map[TokenKind]int{
	Not: 3,
	And: 2,
	Or:  2,
}

// EvaluateStack evaluates tokens against ix in one pass using the
// shunting-yard algorithm. The operator stack holds pending operators and
// open parentheses; the operand stack holds match sets.
//
// Results and errors agree with Parse followed by ix.Evaluate.
func EvaluateStack(tokens []Token, ix *MatchIndex) (MatchSet, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty query", core.ErrMalformedQuery)
	}

	var (
		ops           []Token
		opPos         []int
		operands      []MatchSet
		expectOperand = true
	)

	apply := func(op Token) {
		switch op.Kind {
		case Not:
			top := operands[len(operands)-1]
			operands[len(operands)-1] = ix.Universe().Difference(top)
		case And, Or:
			right := operands[len(operands)-1]
			left := operands[len(operands)-2]
			operands = operands[:len(operands)-2]
			if op.Kind == And {
				operands = append(operands, left.Intersect(right))
			} else {
				operands = append(operands, left.Union(right))
			}
		}
	}
	pop := func() Token {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		opPos = opPos[:len(opPos)-1]
		return op
	}

	for i, tok := range tokens {
		switch tok.Kind {
		case Term:
			if !expectOperand {
				return nil, malformed(i, "unexpected %s, expected an operator", tok)
			}
			operands = append(operands, ix.Lookup(tok.Text))
			expectOperand = false
		case Not:
			if !expectOperand {
				return nil, malformed(i, "unexpected %s, expected an operator", tok)
			}
			ops = append(ops, tok)
			opPos = append(opPos, i)
		case LParen:
			if !expectOperand {
				return nil, malformed(i, "unexpected %s, expected an operator", tok)
			}
			ops = append(ops, tok)
			opPos = append(opPos, i)
		case RParen:
			if expectOperand {
				return nil, malformed(i, "unexpected ')', expected a term")
			}
			matched := false
			for len(ops) > 0 {
				op := pop()
				if op.Kind == LParen {
					matched = true
					break
				}
				apply(op)
			}
			if !matched {
				return nil, malformed(i, "unmatched ')'")
			}
		case And, Or:
			if expectOperand {
				return nil, malformed(i, "operator %s is missing its left operand", tok)
			}
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Kind == LParen || precedence[top.Kind] < precedence[tok.Kind] {
					break
				}
				apply(pop())
			}
			ops = append(ops, tok)
			opPos = append(opPos, i)
			expectOperand = true
		default:
			return nil, malformed(i, "unknown token %s", tok)
		}
	}

	if expectOperand {
		return nil, malformed(len(tokens), "unexpected end of query, expected a term")
	}
	for len(ops) > 0 {
		pos := opPos[len(opPos)-1]
		op := pop()
		if op.Kind == LParen {
			return nil, malformed(pos, "unmatched '('")
		}
		apply(op)
	}
	return operands[0], nil
}

