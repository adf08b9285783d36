package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestDocumentBasics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc, err := repo.CreateDocument(ctx, &core.Document{Name: "python", Text: "python java"})
	require.NoError(t, err)
	assert.NotZero(t, doc.Id)
	assert.False(t, doc.InsertedAt.IsZero())

	byID, err := repo.GetDocumentByID(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "python java", byID.Text)

	byName, err := repo.GetDocument(ctx, "Python")
	require.NoError(t, err)
	assert.Equal(t, doc.Id, byName.Id)
}

func TestAddDocuments_InsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		_, err := repo.CreateDocument(ctx, &core.Document{Name: n, Text: n + " text"})
		require.NoError(t, err)
	}

	all, err := repo.GetAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, n := range names {
		assert.Equal(t, n, all[i].Name)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddDocuments_Batch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := repo.AddDocuments(ctx,
		&core.Document{Name: "d1", Text: "python java"},
		&core.Document{Name: "d2", Text: "java"},
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Less(t, added[0].Id, added[1].Id)
}

func TestAddDocuments_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddDocuments(ctx, &core.Document{Name: "ok"}, &core.Document{Name: " "})
	assert.ErrorIs(t, err, core.ErrEmptyDocumentName)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetDocument_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetDocumentByID(ctx, core.ID(99))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocument_ReturnsNewest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateDocument(ctx, &core.Document{Name: "rust", Text: "old"})
	require.NoError(t, err)
	newer, err := repo.CreateDocument(ctx, &core.Document{Name: "rust", Text: "new"})
	require.NoError(t, err)

	got, err := repo.GetDocument(ctx, "rust")
	require.NoError(t, err)
	assert.Equal(t, newer.Id, got.Id)
	assert.Equal(t, "new", got.Text)
}

func TestDeleteDocument(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateDocument(ctx, &core.Document{Name: "python", Text: "a"})
	require.NoError(t, err)
	_, err = repo.CreateDocument(ctx, &core.Document{Name: "Python", Text: "b"})
	require.NoError(t, err)
	keep, err := repo.CreateDocument(ctx, &core.Document{Name: "java", Text: "c"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDocument(ctx, "python"))

	all, err := repo.GetAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.Id, all[0].Id)

	_, err = repo.GetDocument(ctx, "python")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.DeleteDocument(ctx, "python")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetAllDocuments_Empty(t *testing.T) {
	repo := newTestRepo(t)

	all, err := repo.GetAllDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConcurrentAdds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateDocument(ctx, &core.Document{Name: fmt.Sprintf("doc-%d", i), Text: "text"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := repo.GetAllDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)

	seen := make(map[core.ID]bool)
	for _, d := range all {
		assert.False(t, seen[d.Id], "duplicate id %d", d.Id)
		seen[d.Id] = true
	}
}

func TestCanceledContext(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAllDocuments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddDocuments_LeavesArgumentsUntouched(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	input := &core.Document{Name: "go", Text: "go text"}
	stored, err := repo.CreateDocument(ctx, input)
	require.NoError(t, err)
	assert.NotZero(t, stored.Id)
	assert.NotSame(t, input, stored)
	assert.Zero(t, input.Id)
	assert.True(t, input.InsertedAt.IsZero())
}

func TestGetOrCreateDocument(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, created, err := repo.GetOrCreateDocument(ctx, &core.Document{Name: "Erlang", Text: "first"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.Id)

	again, created, err := repo.GetOrCreateDocument(ctx, &core.Document{Name: "erlang", Text: "second"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, again.Id)
	assert.Equal(t, "first", again.Text)

	_, _, err = repo.GetOrCreateDocument(ctx, &core.Document{Name: " "})
	assert.ErrorIs(t, err, core.ErrEmptyDocumentName)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetOrCreateDocument_Concurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[core.ID]int)
	createdCount := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, created, err := repo.GetOrCreateDocument(ctx, &core.Document{
				Name: "golang",
				Text: fmt.Sprintf("version %d", i),
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[doc.Id]++
			if created {
				createdCount++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Len(t, ids, 1)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetOrCreateDocument_OtherNamesUnaffected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateDocument(ctx, &core.Document{Name: "python", Text: "a"})
	require.NoError(t, err)

	doc, created, err := repo.GetOrCreateDocument(ctx, &core.Document{Name: "java", Text: "b"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "java", doc.Name)

	all, err := repo.GetAllDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "java"}, []string{all[0].Name, all[1].Name})
}
