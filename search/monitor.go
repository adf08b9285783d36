package search

import (
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/query"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// All hooks are called from the goroutine running the search.
type SearchMonitor interface {
	Start(searchID, rawQuery string)
	AfterNormalization(normalized string)
	AfterParse(expr query.Node)
	AfterCorpusEvaluation(matches []*core.Document)
	FallbackTriggered(terms []string)
	Enriched(term string, doc *core.Document)
	EnrichmentSkipped(term string, err error)
	Finish(results []*core.Document)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                         {}
func (n *noopMonitor) AfterNormalization(_ string)               {}
func (n *noopMonitor) AfterParse(_ query.Node)                   {}
func (n *noopMonitor) AfterCorpusEvaluation(_ []*core.Document)  {}
func (n *noopMonitor) FallbackTriggered(_ []string)              {}
func (n *noopMonitor) Enriched(_ string, _ *core.Document)       {}
func (n *noopMonitor) EnrichmentSkipped(_ string, _ error)       {}
func (n *noopMonitor) Finish(_ []*core.Document)                 {}
