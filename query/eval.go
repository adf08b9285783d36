package query

import (
	"strings"

	"github.com/poiesic/logicsearch/core"
)

// EvaluateText reports whether text satisfies expr.
// A literal matches when its term occurs anywhere in the text, ignoring case.
func EvaluateText(expr Node, text string) bool {
	return evalText(expr, strings.ToLower(text))
}

func evalText(expr Node, lower string) bool {
	switch n := expr.(type) {
	case Literal:
		return strings.Contains(lower, strings.ToLower(n.Term))
	case NotExpr:
		return !evalText(n.Operand, lower)
	case AndExpr:
		left := evalText(n.Left, lower)
		right := evalText(n.Right, lower)
		return left && right
	case OrExpr:
		left := evalText(n.Left, lower)
		right := evalText(n.Right, lower)
		return left || right
	default:
		return false
	}
}

// EvaluateCorpus returns the IDs of the documents in docs that satisfy expr.
// Terms match whole words only.
func EvaluateCorpus(expr Node, docs []*core.Document) MatchSet {
	return NewMatchIndex(docs).Evaluate(expr)
}
