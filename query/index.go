package query

import (
	"slices"
	"strings"

	"github.com/poiesic/logicsearch/core"
)

// MatchSet is a set of document IDs.
type MatchSet map[core.ID]struct{}

// NewMatchSet returns a set holding ids.
func NewMatchSet(ids ...core.ID) MatchSet {
	s := make(MatchSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s MatchSet) Contains(id core.ID) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new set with the members of both sets.
func (s MatchSet) Union(other MatchSet) MatchSet {
	out := make(MatchSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Intersect returns a new set with the members present in both sets.
func (s MatchSet) Intersect(other MatchSet) MatchSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(MatchSet, len(small))
	for id := range small {
		if large.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Difference returns a new set with the members of s that are not in other.
func (s MatchSet) Difference(other MatchSet) MatchSet {
	out := make(MatchSet, len(s))
	for id := range s {
		if !other.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// IDs returns the members in ascending order.
func (s MatchSet) IDs() []core.ID {
	ids := make([]core.ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MatchIndex maps terms to the documents containing them for one corpus snapshot.
//
// Document word sets are built the first time a term is looked up and the
// match set of every term is memoized, so a term repeated in a query is only
// resolved once. A MatchIndex is owned by a single search.
type MatchIndex struct {
	docs     []*core.Document
	words    []map[string]struct{}
	terms    map[string]MatchSet
	universe MatchSet
}

// NewMatchIndex creates an index over docs. Document text is not read until
// the first lookup.
func NewMatchIndex(docs []*core.Document) *MatchIndex {
	universe := make(MatchSet, len(docs))
	for _, doc := range docs {
		universe[doc.Id] = struct{}{}
	}
	return &MatchIndex{
		docs:     docs,
		terms:    make(map[string]MatchSet),
		universe: universe,
	}
}

// Universe returns the IDs of every document in the snapshot.
// Callers must not modify the returned set.
func (ix *MatchIndex) Universe() MatchSet {
	return ix.universe
}

// Lookup returns the documents whose text contains term as a whole word.
// Callers must not modify the returned set.
func (ix *MatchIndex) Lookup(term string) MatchSet {
	term = strings.ToLower(term)
	if set, ok := ix.terms[term]; ok {
		return set
	}

	ix.buildWords()
	set := make(MatchSet)
	for i, doc := range ix.docs {
		if _, ok := ix.words[i][term]; ok {
			set[doc.Id] = struct{}{}
		}
	}
	ix.terms[term] = set
	return set
}

// Evaluate computes the documents matching expr.
func (ix *MatchIndex) Evaluate(expr Node) MatchSet {
	switch n := expr.(type) {
	case Literal:
		return ix.Lookup(n.Term)
	case NotExpr:
		return ix.universe.Difference(ix.Evaluate(n.Operand))
	case AndExpr:
		return ix.Evaluate(n.Left).Intersect(ix.Evaluate(n.Right))
	case OrExpr:
		return ix.Evaluate(n.Left).Union(ix.Evaluate(n.Right))
	default:
		return make(MatchSet)
	}
}

// Documents returns the documents in set, in corpus order.
func (ix *MatchIndex) Documents(set MatchSet) []*core.Document {
	var out []*core.Document
	for _, doc := range ix.docs {
		if set.Contains(doc.Id) {
			out = append(out, doc)
		}
	}
	return out
}

func (ix *MatchIndex) buildWords() {
	if ix.words != nil {
		return
	}
	ix.words = make([]map[string]struct{}, len(ix.docs))
	for i, doc := range ix.docs {
		words := make(map[string]struct{})
		for _, w := range Words(doc.Text) {
			words[w] = struct{}{}
		}
		ix.words[i] = words
	}
}
