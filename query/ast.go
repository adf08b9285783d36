package query

// Node is a parsed boolean expression. The set of implementations is closed:
// Literal, NotExpr, AndExpr and OrExpr.
type Node interface {
	// String renders the node as an s-expression, e.g. (or (and a b) c).
	String() string
	node()
}

// Literal matches documents containing Term.
type Literal struct {
	Term string
}

// NotExpr negates its operand.
type NotExpr struct {
	Operand Node
}

// AndExpr requires both sides to match.
type AndExpr struct {
	Left, Right Node
}

// OrExpr requires either side to match.
type OrExpr struct {
	Left, Right Node
}

func (Literal) node() {}
func (NotExpr) node() {}
func (AndExpr) node() {}
func (OrExpr) node()  {}

func (l Literal) String() string { return l.Term }

func (n NotExpr) String() string { return "(not " + n.Operand.String() + ")" }

func (a AndExpr) String() string {
	return "(and " + a.Left.String() + " " + a.Right.String() + ")"
}

func (o OrExpr) String() string {
	return "(or " + o.Left.String() + " " + o.Right.String() + ")"
}
