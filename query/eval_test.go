package query

import (
	"testing"

	"github.com/poiesic/logicsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus() []*core.Document {
	return []*core.Document{
		{Id: 1, Name: "d1", Text: "python java"},
		{Id: 2, Name: "d2", Text: "java"},
		{Id: 3, Name: "d3", Text: "ruby"},
	}
}

func mustParse(t *testing.T, q string) Node {
	t.Helper()
	expr, err := ParseString(q)
	require.NoError(t, err)
	return expr
}

func TestEvaluateCorpus(t *testing.T) {
	tests := []struct {
		query string
		want  []core.ID
	}{
		{"python and java", []core.ID{1}},
		{"java or ruby", []core.ID{1, 2, 3}},
		{"not python", []core.ID{2, 3}},
		{"not java and not ruby", []core.ID{}},
		{"(java or ruby) and not python", []core.ID{2, 3}},
		{"perl", []core.ID{}},
		{"not perl", []core.ID{1, 2, 3}},
		{"JAVA", []core.ID{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := EvaluateCorpus(mustParse(t, tt.query), testCorpus())
			assert.Equal(t, tt.want, got.IDs())
		})
	}
}

func TestEvaluateCorpus_WholeWords(t *testing.T) {
	docs := []*core.Document{
		{Id: 1, Text: "javascript"},
		{Id: 2, Text: "Java, the island"},
	}
	got := EvaluateCorpus(mustParse(t, "java"), docs)
	assert.Equal(t, []core.ID{2}, got.IDs())
}

func TestEvaluateCorpus_EmptyCorpus(t *testing.T) {
	got := EvaluateCorpus(mustParse(t, "not python"), nil)
	assert.Empty(t, got)
}

func TestEvaluate_PrecedenceEquivalence(t *testing.T) {
	docs := []*core.Document{
		{Id: 1, Text: "a b"},
		{Id: 2, Text: "c"},
		{Id: 3, Text: "a"},
		{Id: 4, Text: "b c"},
	}
	implicit := EvaluateCorpus(mustParse(t, "a and b or c"), docs)
	explicit := EvaluateCorpus(mustParse(t, "(a and b) or c"), docs)
	assert.Equal(t, explicit.IDs(), implicit.IDs())
	assert.Equal(t, []core.ID{1, 2, 4}, implicit.IDs())

	for _, text := range []string{"a b", "c", "a", "b c", ""} {
		assert.Equal(t,
			EvaluateText(mustParse(t, "(a and b) or c"), text),
			EvaluateText(mustParse(t, "a and b or c"), text),
			"text %q", text)
	}
}

func TestEvaluateText(t *testing.T) {
	tests := []struct {
		query string
		text  string
		want  bool
	}{
		{"python", "I like Python", true},
		{"java", "javascript only", true},
		{"python and java", "python and java", true},
		{"python and java", "just python", false},
		{"python or java", "just java", true},
		{"not python", "just java", true},
		{"not python", "just python", false},
		{"not python and java", "java without snakes", true},
		{"ruby", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateText(mustParse(t, tt.query), tt.text))
		})
	}
}

func TestMatchIndex(t *testing.T) {
	ix := NewMatchIndex(testCorpus())

	assert.Equal(t, []core.ID{1, 2, 3}, ix.Universe().IDs())
	assert.Equal(t, []core.ID{1, 2}, ix.Lookup("java").IDs())
	assert.Equal(t, []core.ID{1, 2}, ix.Lookup("Java").IDs())

	docs := ix.Documents(NewMatchSet(3, 1))
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].Name)
	assert.Equal(t, "d3", docs[1].Name)
}

func TestMatchIndex_Lazy(t *testing.T) {
	ix := NewMatchIndex(testCorpus())
	assert.Nil(t, ix.words)

	ix.Lookup("python")
	assert.NotNil(t, ix.words)
	assert.Contains(t, ix.terms, "python")
}

func TestMatchSet(t *testing.T) {
	a := NewMatchSet(1, 2, 3)
	b := NewMatchSet(2, 3, 4)

	assert.Equal(t, []core.ID{1, 2, 3, 4}, a.Union(b).IDs())
	assert.Equal(t, []core.ID{2, 3}, a.Intersect(b).IDs())
	assert.Equal(t, []core.ID{1}, a.Difference(b).IDs())
	assert.Equal(t, []core.ID{1, 2, 3}, a.IDs(), "operands are not modified")
}

func TestEvaluate_Repeatable(t *testing.T) {
	expr := mustParse(t, "java and not ruby")
	first := EvaluateCorpus(expr, testCorpus())
	second := EvaluateCorpus(expr, testCorpus())
	assert.Equal(t, first, second)
}
