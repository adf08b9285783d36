package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/logicsearch/ai"
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/knowledge"
	"github.com/poiesic/logicsearch/query"
	"github.com/poiesic/logicsearch/storage"
)

// Evaluator selects how a parsed query is evaluated against the corpus.
type Evaluator int

const (
	// EvaluatorTree walks the parsed expression tree.
	EvaluatorTree Evaluator = iota
	// EvaluatorStack evaluates the token stream with the shunting-yard algorithm.
	EvaluatorStack
)

// Searcher runs boolean queries over a document corpus.
type Searcher struct {
	repository      storage.DocumentRepository
	normalizer      *Normalizer
	completer       ai.Completer
	source          knowledge.Source
	enricher        *Enricher
	fallback        bool
	evaluator       Evaluator
	externalTimeout time.Duration
	enricherOpts    []EnricherOption
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCompleter enables query normalization through completer.
func WithCompleter(completer ai.Completer) Option {
	return func(s *Searcher) error {
		s.completer = completer
		return nil
	}
}

// WithNormalizer sets a prebuilt normalizer. It takes precedence over WithCompleter.
func WithNormalizer(n *Normalizer) Option {
	return func(s *Searcher) error {
		s.normalizer = n
		return nil
	}
}

// WithKnowledgeSource enables fallback enrichment from source.
func WithKnowledgeSource(source knowledge.Source) Option {
	return func(s *Searcher) error {
		s.source = source
		return nil
	}
}

// WithFallback turns fallback enrichment on or off. It is on by default and
// only takes effect when a knowledge source is configured.
func WithFallback(enabled bool) Option {
	return func(s *Searcher) error {
		s.fallback = enabled
		return nil
	}
}

// WithEvaluator selects the evaluation strategy. Default is EvaluatorTree.
func WithEvaluator(ev Evaluator) Option {
	return func(s *Searcher) error {
		if ev != EvaluatorTree && ev != EvaluatorStack {
			return fmt.Errorf("unknown evaluator %d", ev)
		}
		s.evaluator = ev
		return nil
	}
}

// WithExternalTimeout bounds every call to the completer and the knowledge
// source. Zero disables the bound. Default is 30s.
func WithExternalTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d < 0 {
			return fmt.Errorf("external timeout cannot be negative")
		}
		s.externalTimeout = d
		return nil
	}
}

// WithEnrichmentDedup controls whether fallback reuses stored documents whose
// name matches the term. Default is true.
func WithEnrichmentDedup(enabled bool) Option {
	return func(s *Searcher) error {
		s.enricherOpts = append(s.enricherOpts, WithDedup(enabled))
		return nil
	}
}

// WithPoolSize sets how many fallback lookups run concurrently.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		s.enricherOpts = append(s.enricherOpts, WithEnricherPoolSize(size))
		return nil
	}
}

// WithMaxAttempts retries failed knowledge lookups up to maxAttempts times.
func WithMaxAttempts(maxAttempts int) Option {
	return func(s *Searcher) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		s.enricherOpts = append(s.enricherOpts, WithLookupRetries(maxAttempts, defaultRetryBaseDelay))
		return nil
	}
}

// WithMaxSummaryLength caps enriched document text, in runes.
func WithMaxSummaryLength(n int) Option {
	return func(s *Searcher) error {
		s.enricherOpts = append(s.enricherOpts, WithSummaryLimit(n))
		return nil
	}
}

// NewSearcher creates a new searcher. Call Close when done.
func NewSearcher(repository storage.DocumentRepository, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	s := &Searcher{
		repository:      repository,
		fallback:        true,
		evaluator:       EvaluatorTree,
		externalTimeout: defaultExternalTimeout,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.normalizer == nil && s.completer != nil {
		n, err := NewNormalizer(s.completer, s.logger)
		if err != nil {
			return nil, err
		}
		s.normalizer = n
	}

	if s.source != nil {
		enricherOpts := append([]EnricherOption{
			WithLookupTimeout(s.externalTimeout),
			WithEnricherLogger(s.logger),
		}, s.enricherOpts...)
		enricher, err := NewEnricher(s.repository, s.source, enricherOpts...)
		if err != nil {
			return nil, err
		}
		s.enricher = enricher
	}

	return s, nil
}

// Close releases the enrichment worker pool. The repository stays open.
func (s *Searcher) Close() error {
	if s.enricher != nil {
		s.enricher.Release()
	}
	return nil
}

// Search returns the documents matching q in corpus order.
func (s *Searcher) Search(ctx context.Context, q string) ([]*core.Document, error) {
	return s.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs q and reports each stage to monitor.
//
// A malformed query returns an error wrapping core.ErrMalformedQuery. A query
// that matches nothing returns an empty slice, after fallback enrichment when
// a knowledge source is configured.
func (s *Searcher) SearchWithMonitor(ctx context.Context, q string, monitor SearchMonitor) ([]*core.Document, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	searchID := uuid.NewString()
	logger := s.logger.With("search_id", searchID)
	monitor.Start(searchID, q)

	// 1. Normalize
	text := q
	if s.normalizer != nil {
		normalized, err := s.normalize(ctx, q)
		if err != nil {
			logger.Error("query normalization failed", "query", q, "err", err)
			return nil, err
		}
		text = normalized
		monitor.AfterNormalization(text)
	}

	// 2. Tokenize and parse
	tokens, err := query.Tokenize(text)
	if err != nil {
		return nil, err
	}
	expr, err := query.Parse(tokens)
	if err != nil {
		logger.Debug("malformed query", "query", text, "err", err)
		return nil, err
	}
	monitor.AfterParse(expr)

	// 3. Evaluate against a snapshot of the corpus
	docs, err := s.repository.GetAllDocuments(ctx)
	if err != nil {
		logger.Error("error reading corpus", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRepository, err)
	}

	ix := query.NewMatchIndex(docs)
	var matches query.MatchSet
	switch s.evaluator {
	case EvaluatorStack:
		matches, err = query.EvaluateStack(tokens, ix)
		if err != nil {
			return nil, err
		}
	default:
		matches = ix.Evaluate(expr)
	}

	results := ix.Documents(matches)
	monitor.AfterCorpusEvaluation(results)
	logger.Debug("corpus evaluated", "expr", expr.String(), "corpus", len(docs), "matches", len(results))

	// 4. Fallback enrichment
	if len(results) == 0 && s.fallback && s.enricher != nil {
		terms := query.ExtractLiteralTerms(expr)
		if len(terms) > 0 {
			monitor.FallbackTriggered(terms)
			logger.Info("no local matches, enriching", "terms", terms)
			results, err = s.enricher.Enrich(ctx, terms, monitor)
			if err != nil {
				return nil, err
			}
		}
	}

	if results == nil {
		results = []*core.Document{}
	}
	monitor.Finish(results)
	return results, nil
}

func (s *Searcher) normalize(ctx context.Context, q string) (string, error) {
	if s.externalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.externalTimeout)
		defer cancel()
	}
	return s.normalizer.Normalize(ctx, q)
}
