package query

import (
	"testing"

	"github.com/poiesic/logicsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateStack_AgreesWithTree(t *testing.T) {
	docs := []*core.Document{
		{Id: 1, Text: "python java"},
		{Id: 2, Text: "java"},
		{Id: 3, Text: "ruby"},
		{Id: 4, Text: "python ruby perl"},
		{Id: 5, Text: ""},
	}

	queries := []string{
		"python",
		"python and java",
		"java or ruby",
		"not python",
		"a and b or c",
		"python or java and ruby",
		"python and java or ruby",
		"not python and java",
		"not (python and java)",
		"not not ruby",
		"(python or ruby) and not (java or perl)",
		"python and not java or perl",
		"((java))",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			tokens, err := Tokenize(q)
			require.NoError(t, err)
			expr, err := Parse(tokens)
			require.NoError(t, err)

			tree := NewMatchIndex(docs).Evaluate(expr)
			stack, err := EvaluateStack(tokens, NewMatchIndex(docs))
			require.NoError(t, err)
			assert.Equal(t, tree.IDs(), stack.IDs())
		})
	}
}

func TestEvaluateStack_Malformed(t *testing.T) {
	ix := NewMatchIndex(nil)
	queries := []string{
		"(python and",
		"(python",
		"python)",
		"and python",
		"python or",
		"python java",
		"()",
		"not",
		") (",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			tokens, err := Tokenize(q)
			require.NoError(t, err)
			_, err = EvaluateStack(tokens, ix)
			assert.ErrorIs(t, err, core.ErrMalformedQuery)
		})
	}
}

func TestEvaluateStack_Empty(t *testing.T) {
	_, err := EvaluateStack(nil, NewMatchIndex(nil))
	assert.ErrorIs(t, err, core.ErrMalformedQuery)
}
