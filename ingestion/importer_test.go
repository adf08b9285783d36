package ingestion

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/storage"
	"github.com/poiesic/logicsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestNewImporter(t *testing.T) {
	repo := newTestRepository(t)

	t.Run("valid configuration", func(t *testing.T) {
		im, err := NewImporter(repo, WithPoolSize(2), WithLogger(nil))
		require.NoError(t, err)
		defer im.Release()
		assert.Equal(t, 2, im.pool.Cap())
		assert.Equal(t, []string{".txt", ".md"}, im.extensions)
	})

	t.Run("nil repository", func(t *testing.T) {
		_, err := NewImporter(nil)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewImporter(repo, WithBatchSize(0))
		assert.Error(t, err)
		_, err = NewImporter(repo, WithExtensions(" ", ""))
		assert.Error(t, err)
		_, err = NewImporter(repo, WithMaxFileSize(0))
		assert.Error(t, err)
	})

	t.Run("extensions are normalized", func(t *testing.T) {
		im, err := NewImporter(repo, WithExtensions("TXT", ".rst"))
		require.NoError(t, err)
		defer im.Release()
		assert.Equal(t, []string{".txt", ".rst"}, im.extensions)
	})
}

func TestImportFiles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	dir := t.TempDir()

	writeFile(t, dir, "python.txt", "Python is a programming language.\n")
	writeFile(t, dir, "nested/java.md", "Java runs on the JVM.")
	writeFile(t, dir, "empty.txt", "  \n\t")
	writeFile(t, dir, "image.png", "not text")
	bad := writeFile(t, dir, "latin1.txt", "caf\xe9")

	var progress bytes.Buffer
	im, err := NewImporter(repo, WithBatchSize(1), WithLanguage("en"), WithProgress(&progress))
	require.NoError(t, err)
	defer im.Release()

	res, err := im.ImportFiles(ctx, dir)
	require.NoError(t, err)

	require.Len(t, res.Imported, 2)
	assert.Equal(t, "java", res.Imported[0].Name)
	assert.Equal(t, "Java runs on the JVM.", res.Imported[0].Text)
	assert.Equal(t, "en", res.Imported[0].Language)
	assert.Contains(t, res.Imported[0].Link, "file://")
	assert.Equal(t, "python", res.Imported[1].Name)
	assert.Equal(t, "Python is a programming language.", res.Imported[1].Text)

	assert.Equal(t, []string{filepath.Join(dir, "empty.txt")}, res.Skipped)
	require.Contains(t, res.Failed, bad)
	assert.Len(t, res.Failed, 1)
	assert.Contains(t, progress.String(), "4/4")

	stored, err := repo.GetDocument(ctx, "PYTHON")
	require.NoError(t, err)
	assert.Equal(t, res.Imported[1].Id, stored.Id)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportFiles_ExplicitFiles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	dir := t.TempDir()

	notes := writeFile(t, dir, "notes.log", "ruby and rails")
	plain := writeFile(t, dir, "perl.txt", "perl")

	im, err := NewImporter(repo)
	require.NoError(t, err)
	defer im.Release()

	res, err := im.ImportFiles(ctx, notes, plain, notes)
	require.NoError(t, err)
	require.Len(t, res.Imported, 2)
	assert.Equal(t, "notes", res.Imported[0].Name)
	assert.Equal(t, "perl", res.Imported[1].Name)
}

func TestImportFiles_Limits(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	dir := t.TempDir()
	big := writeFile(t, dir, "big.txt", "0123456789abcdef")

	im, err := NewImporter(repo, WithMaxFileSize(8))
	require.NoError(t, err)
	defer im.Release()

	res, err := im.ImportFiles(ctx, big)
	require.NoError(t, err)
	assert.Empty(t, res.Imported)
	assert.Contains(t, res.Failed, big)
}

func TestImportFiles_Errors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	im, err := NewImporter(repo)
	require.NoError(t, err)
	defer im.Release()

	_, err = im.ImportFiles(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = im.ImportFiles(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrNoInputFiles)

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = im.ImportFiles(canceled, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

// brokenRepository fails every write.
type brokenRepository struct {
	storage.DocumentRepository
}

func (brokenRepository) AddDocuments(context.Context, ...*core.Document) ([]*core.Document, error) {
	return nil, storage.ErrStorageClosed
}

func TestImportFiles_RepositoryFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	im, err := NewImporter(brokenRepository{newTestRepository(t)})
	require.NoError(t, err)
	defer im.Release()

	_, err = im.ImportFiles(context.Background(), dir)
	assert.ErrorIs(t, err, core.ErrRepository)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
