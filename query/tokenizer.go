package query

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/poiesic/logicsearch/core"
)

var keywords = map[string]TokenKind{
	"and": And,
	"or":  Or,
	"not": Not,
}

// Tokenize converts a query into tokens.
//
// The input is case-folded first. Parentheses and maximal runs of word
// characters (letters, digits, underscore) become tokens; every other
// character separates tokens and is otherwise ignored. A blank query yields
// no tokens and no error. A query with visible characters but no tokens
// returns core.ErrMalformedQuery.
func Tokenize(q string) ([]Token, error) {
	lower := strings.ToLower(q)
	var tokens []Token

	runes := []rune(lower)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '(':
			tokens = append(tokens, Token{Kind: LParen})
			i++
		case r == ')':
			tokens = append(tokens, Token{Kind: RParen})
			i++
		case isWordRune(r):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			if kind, ok := keywords[word]; ok {
				tokens = append(tokens, Token{Kind: kind})
			} else {
				tokens = append(tokens, Token{Kind: Term, Text: word})
			}
		default:
			i++
		}
	}

	if len(tokens) == 0 && strings.TrimSpace(q) != "" {
		return nil, fmt.Errorf("%w: no searchable terms in %q", core.ErrMalformedQuery, q)
	}
	return tokens, nil
}

// Words splits text into lower-case word tokens using the same word rule
// as Tokenize. Keywords are returned as ordinary words.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
