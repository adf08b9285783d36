package query

// ExtractLiteralTerms returns the terms of expr that are not under a NOT,
// left to right, each once.
func ExtractLiteralTerms(expr Node) []string {
	var terms []string
	seen := make(map[string]struct{})

	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case Literal:
			if _, ok := seen[n.Term]; !ok {
				seen[n.Term] = struct{}{}
				terms = append(terms, n.Term)
			}
		case AndExpr:
			walk(n.Left)
			walk(n.Right)
		case OrExpr:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(expr)

	return terms
}
