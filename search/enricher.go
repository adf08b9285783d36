package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/knowledge"
	"github.com/poiesic/logicsearch/storage"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxSummaryLength = 2000
	defaultEnrichPoolSize   = 4
	defaultExternalTimeout  = 30 * time.Second
	defaultRetryBaseDelay   = 250 * time.Millisecond
)

// Enricher materializes knowledge-source pages as documents.
type Enricher struct {
	repository  storage.DocumentRepository
	source      knowledge.Source
	pool        *ants.Pool
	dedup       bool
	maxSummary  int
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	inflight    singleflight.Group // Shares lookups of one term across concurrent searches
	logger      *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher) error

// WithEnricherPoolSize sets how many lookups run at once.
func WithEnricherPoolSize(size int) EnricherOption {
	return func(e *Enricher) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithDedup controls whether an existing document with the term's name is
// reused instead of inserting a new one. Default is true.
func WithDedup(enabled bool) EnricherOption {
	return func(e *Enricher) error {
		e.dedup = enabled
		return nil
	}
}

// WithSummaryLimit caps the stored summary, in runes.
func WithSummaryLimit(n int) EnricherOption {
	return func(e *Enricher) error {
		if n < 1 {
			return fmt.Errorf("max summary length must be positive, got %d", n)
		}
		e.maxSummary = n
		return nil
	}
}

// WithLookupTimeout bounds each knowledge-source call. Zero disables the bound.
func WithLookupTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) error {
		e.timeout = d
		return nil
	}
}

// WithLookupRetries retries transient lookup failures. NotFound and
// ambiguity are never retried. Default is a single attempt.
func WithLookupRetries(maxAttempts int, baseDelay time.Duration) EnricherOption {
	return func(e *Enricher) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		e.maxAttempts = maxAttempts
		e.baseDelay = baseDelay
		return nil
	}
}

// WithEnricherLogger sets a custom logger.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an Enricher. Call Release when done.
func NewEnricher(repository storage.DocumentRepository, source knowledge.Source, opts ...EnricherOption) (*Enricher, error) {
	if repository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if source == nil {
		return nil, ErrKnowledgeSourceRequired
	}

	pool, err := ants.NewPool(defaultEnrichPoolSize)
	if err != nil {
		return nil, err
	}

	e := &Enricher{
		repository:  repository,
		source:      source,
		pool:        pool,
		dedup:       true,
		maxSummary:  defaultMaxSummaryLength,
		timeout:     defaultExternalTimeout,
		maxAttempts: 1,
		baseDelay:   defaultRetryBaseDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}
	return e, nil
}

// Release frees the worker pool.
func (e *Enricher) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

type enrichOutcome struct {
	doc *core.Document
	err error
}

// Enrich looks up every term and returns the resulting documents in term order.
//
// Terms the source does not know, or whose lookup fails, are skipped and
// reported to monitor. A repository failure while storing a document is
// returned after all lookups finish; documents stored before it stay stored.
func (e *Enricher) Enrich(ctx context.Context, terms []string, monitor SearchMonitor) ([]*core.Document, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	outcomes := make([]enrichOutcome, len(terms))
	var wg sync.WaitGroup
	for i, term := range terms {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			doc, err := e.enrichShared(ctx, term)
			outcomes[i] = enrichOutcome{doc: doc, err: err}
		}
		if err := e.pool.Submit(task); err != nil {
			e.logger.Warn("enrichment pool unavailable, running inline", "term", term, "err", err)
			task()
		}
	}
	wg.Wait()

	var results []*core.Document
	var repoErr error
	for i, out := range outcomes {
		switch {
		case out.err == nil:
			results = append(results, out.doc)
			monitor.Enriched(terms[i], out.doc)
		case errors.Is(out.err, core.ErrRepository):
			if repoErr == nil {
				repoErr = out.err
			}
		default:
			monitor.EnrichmentSkipped(terms[i], out.err)
		}
	}
	if repoErr != nil {
		return nil, repoErr
	}
	return results, nil
}

// enrichShared collapses concurrent enrichments of the same term into one
// when deduplication is on. Every caller gets the same stored document.
func (e *Enricher) enrichShared(ctx context.Context, term string) (*core.Document, error) {
	if !e.dedup {
		return e.enrichTerm(ctx, term)
	}
	v, err, shared := e.inflight.Do(strings.ToLower(strings.TrimSpace(term)), func() (any, error) {
		return e.enrichTerm(ctx, term)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("joined in-flight enrichment", "term", term)
	}
	return v.(*core.Document), nil
}

// enrichTerm performs the single enrichment attempt for term.
func (e *Enricher) enrichTerm(ctx context.Context, term string) (*core.Document, error) {
	if e.dedup {
		existing, err := e.repository.GetDocument(ctx, term)
		if err == nil {
			e.logger.Debug("reusing stored document", "term", term, "id", existing.Id)
			return existing, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", core.ErrRepository, err)
		}
	}

	page, err := e.lookup(ctx, term)
	if amb, ok := knowledge.AsAmbiguous(err); ok {
		candidate := amb.Candidates[0]
		e.logger.Debug("ambiguous term, retrying with first candidate", "term", term, "candidate", candidate)
		page, err = e.lookup(ctx, candidate)
	}
	if err != nil {
		if errors.Is(err, knowledge.ErrPageNotFound) {
			e.logger.Debug("no page for term", "term", term)
		} else {
			e.logger.Warn("knowledge lookup failed", "term", term, "err", err)
		}
		return nil, err
	}

	doc := &core.Document{
		Name: term,
		Text: truncateRunes(page.Summary, e.maxSummary),
		Link: page.URL,
	}
	stored, created, err := e.store(ctx, doc)
	if err != nil {
		e.logger.Error("failed to store enriched document", "term", term, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRepository, err)
	}
	if !created {
		e.logger.Debug("term stored by another search", "term", term, "id", stored.Id)
		return stored, nil
	}
	e.logger.Info("enriched corpus", "term", term, "id", stored.Id, "link", stored.Link)
	return stored, nil
}

// store inserts doc. With deduplication on, an existing document of the same
// name wins and nothing is inserted.
func (e *Enricher) store(ctx context.Context, doc *core.Document) (*core.Document, bool, error) {
	if e.dedup {
		return e.repository.GetOrCreateDocument(ctx, doc)
	}
	stored, err := e.repository.CreateDocument(ctx, doc)
	return stored, err == nil, err
}

// lookup calls the source with a bounded timeout and optional retries.
// Failures other than NotFound and ambiguity wrap core.ErrExternalService.
func (e *Enricher) lookup(ctx context.Context, title string) (*knowledge.Page, error) {
	var page *knowledge.Page
	err := RetryWithBackoff(ctx, func() error {
		callCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}

		p, err := e.source.LookupPage(callCtx, title)
		if err == nil {
			page = p
			return nil
		}
		if errors.Is(err, knowledge.ErrPageNotFound) {
			return Permanent(err)
		}
		if _, ok := knowledge.AsAmbiguous(err); ok {
			return Permanent(err)
		}
		return fmt.Errorf("%w: knowledge lookup %q: %w", core.ErrExternalService, title, err)
	}, e.maxAttempts, e.baseDelay)
	if err != nil {
		if errors.Is(err, knowledge.ErrPageNotFound) || errors.Is(err, core.ErrExternalService) {
			return nil, err
		}
		if _, ok := knowledge.AsAmbiguous(err); ok {
			return nil, err
		}
		// Cancellation of the parent context
		return nil, fmt.Errorf("%w: knowledge lookup %q: %w", core.ErrExternalService, title, err)
	}
	return page, nil
}

func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
