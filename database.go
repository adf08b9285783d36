// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package logicsearch

import (
	"errors"
	"log/slog"

	"github.com/poiesic/logicsearch/ai"
	"github.com/poiesic/logicsearch/ai/openai"
	"github.com/poiesic/logicsearch/ingestion"
	"github.com/poiesic/logicsearch/knowledge"
	"github.com/poiesic/logicsearch/knowledge/wikipedia"
	"github.com/poiesic/logicsearch/search"
	"github.com/poiesic/logicsearch/storage"
	"github.com/poiesic/logicsearch/storage/badger"
)

// Database ties a document store to the services a search needs.
type Database struct {
	backend  *badger.Backend
	repo     storage.DocumentRepository
	provider ai.AIProvider
	source   knowledge.Source
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	source        knowledge.Source
	wikipediaOpts []wikipedia.Option
	noKnowledge   bool
	inMemory      bool
	logger        *slog.Logger
}

// WithAIConfig enables query normalization through an OpenAI-compatible
// service described by cfg.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithAIProvider enables query normalization through provider.
// It takes precedence over WithAIConfig. The Database closes it.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithoutNormalizer disables query normalization.
func WithoutNormalizer() DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = nil
		o.provider = nil
	}
}

// WithKnowledgeSource replaces the default Wikipedia source.
func WithKnowledgeSource(source knowledge.Source) DatabaseOption {
	return func(o *databaseOptions) {
		o.source = source
		o.noKnowledge = false
	}
}

// WithWikipedia passes options to the default Wikipedia source.
func WithWikipedia(opts ...wikipedia.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.wikipediaOpts = append(o.wikipediaOpts, opts...)
	}
}

// WithoutKnowledgeSource disables fallback enrichment.
func WithoutKnowledgeSource() DatabaseOption {
	return func(o *databaseOptions) {
		o.source = nil
		o.noKnowledge = true
	}
}

// InMemory keeps the store in memory. The path is ignored.
func InMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger for the database and everything it creates.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the store at filePath. By default there is no query
// normalizer and fallback enrichment uses English Wikipedia.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create document repository
	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider when normalization is wanted
	provider := options.provider
	if provider == nil && options.aiConfig != nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	source := options.source
	if source == nil && !options.noKnowledge {
		wikiOpts := append([]wikipedia.Option{wikipedia.WithLogger(logger)}, options.wikipediaOpts...)
		source, err = wikipedia.NewClient(wikiOpts...)
		if err != nil {
			if provider != nil {
				provider.Close()
			}
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		repo:     repo,
		provider: provider,
		source:   source,
		logger:   logger,
	}, nil
}

// Close releases the provider, the repository and the backend.
// The backend is closed even when an earlier step fails; all errors are joined.
func (db *Database) Close() error {
	var errs []error

	// Close AI provider first
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		errs = append(errs, err)
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DocumentRepository returns the document store.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repo
}

// KnowledgeSource returns the fallback source, or nil when disabled.
func (db *Database) KnowledgeSource() knowledge.Source {
	return db.source
}

// NewSearcher creates a searcher wired to the database's services.
// Options given here are applied last.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(db.logger)}
	if db.provider != nil {
		base = append(base, search.WithCompleter(db.provider.Completer()))
	}
	if db.source != nil {
		base = append(base, search.WithKnowledgeSource(db.source))
	}
	return search.NewSearcher(db.repo, append(base, opts...)...)
}

// NewImporter creates a bulk importer for the database.
func (db *Database) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	base := []ingestion.Option{ingestion.WithLogger(db.logger)}
	return ingestion.NewImporter(db.repo, append(base, opts...)...)
}
