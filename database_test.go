package logicsearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/logicsearch/ai"
	aimock "github.com/poiesic/logicsearch/ai/mock"
	"github.com/poiesic/logicsearch/core"
	kmock "github.com/poiesic/logicsearch/knowledge/mock"
	"github.com/poiesic/logicsearch/knowledge/wikipedia"
	"github.com/poiesic/logicsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
		assert.Nil(t, db.provider, "normalization is off by default")
		assert.IsType(t, &wikipedia.Client{}, db.KnowledgeSource())
	})

	t.Run("without knowledge source", func(t *testing.T) {
		db, err := NewDatabase("", InMemory(), WithoutKnowledgeSource())
		require.NoError(t, err)
		defer db.Close()
		assert.Nil(t, db.KnowledgeSource())
	})

	t.Run("with ai config", func(t *testing.T) {
		db, err := NewDatabase("", InMemory(), WithAIConfig(ai.DefaultConfig()), WithoutKnowledgeSource())
		require.NoError(t, err)
		defer db.Close()
		require.NotNil(t, db.provider)
		assert.NotNil(t, db.provider.Completer())
	})

	t.Run("invalid wikipedia options", func(t *testing.T) {
		_, err := NewDatabase("", InMemory(), WithWikipedia(wikipedia.WithLanguage("")))
		assert.Error(t, err)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	provider := aimock.NewMockProvider("python")
	db, err := NewDatabase(t.TempDir(), WithAIProvider(provider))
	require.NoError(t, err)

	assert.NoError(t, db.Close())
	assert.True(t, provider.(*aimock.MockProvider).Closed())
}

// closeFailingRepository reports an error from Close.
type closeFailingRepository struct {
	storage.DocumentRepository
}

func (closeFailingRepository) Close() error {
	return errRepoClose
}

var errRepoClose = errors.New("sequence release failed")

func TestDatabase_CloseClosesBackendAfterRepositoryError(t *testing.T) {
	db, err := NewDatabase("", InMemory(), WithoutKnowledgeSource())
	require.NoError(t, err)
	db.repo = closeFailingRepository{db.repo}

	err = db.Close()
	assert.ErrorIs(t, err, errRepoClose)
	assert.True(t, db.backend.IsClosed())
}

func TestDatabase_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := NewDatabase(dir, WithoutKnowledgeSource())
	require.NoError(t, err)
	_, err = db.DocumentRepository().CreateDocument(ctx, &core.Document{Name: "python", Text: "python java"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(dir, WithoutKnowledgeSource())
	require.NoError(t, err)
	defer db.Close()

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	defer searcher.Close()

	results, err := searcher.Search(ctx, "java and python")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "python", results[0].Name)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	ctx := context.Background()
	completer := aimock.NewMockCompleter("ruby and not rails")
	source := kmock.NewMockSource().WithPage("ruby", "Ruby is a language.", "https://example.org/ruby")

	db, err := NewDatabase("", InMemory(),
		WithAIProvider(aimock.NewMockProviderWithCompleter(completer)),
		WithKnowledgeSource(source))
	require.NoError(t, err)
	defer db.Close()

	t.Run("searcher uses normalizer and knowledge source", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		defer searcher.Close()

		results, err := searcher.Search(ctx, "anything on ruby but not rails")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "ruby", results[0].Name)
		assert.Equal(t, 1, completer.CallCount())
		assert.Equal(t, []string{"ruby"}, source.Titles())
	})

	t.Run("can create importer", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "perl.txt"), []byte("Perl 5"), 0o644))

		importer, err := db.NewImporter()
		require.NoError(t, err)
		defer importer.Release()

		res, err := importer.ImportFiles(ctx, dir)
		require.NoError(t, err)
		assert.Len(t, res.Imported, 1)
	})
}
