package query

import "fmt"

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	// LParen is an opening parenthesis.
	LParen TokenKind = iota + 1
	// RParen is a closing parenthesis.
	RParen
	// And is the conjunction keyword.
	And
	// Or is the disjunction keyword.
	Or
	// Not is the negation keyword.
	Not
	// Term is a search word.
	Term
)

var kindNames = map[TokenKind]string{
	LParen: "LPAREN",
	RParen: "RPAREN",
	And:    "AND",
	Or:     "OR",
	Not:    "NOT",
	Term:   "TERM",
}

func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a single lexical unit of a query. Text is only set for terms
// and is always lower-case.
type Token struct {
	Kind TokenKind
	Text string
}

// String renders the token as KIND or TERM(text).
func (t Token) String() string {
	if t.Kind == Term {
		return "TERM(" + t.Text + ")"
	}
	return t.Kind.String()
}

// isBinary reports whether the token is AND or OR.
func (t Token) isBinary() bool {
	return t.Kind == And || t.Kind == Or
}
