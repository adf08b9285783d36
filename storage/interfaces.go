package storage

import (
	"context"

	"github.com/poiesic/logicsearch/core"
)

// DocumentRepository provides operations for managing the document corpus.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocuments adds one or more documents to storage in a single transaction.
	// Every document gets a new ID from the sequence and an InsertedAt timestamp.
	// Returns stored copies with IDs and timestamps populated; the arguments
	// are not modified.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// CreateDocument adds a single document. Equivalent to AddDocuments with one argument.
	CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetOrCreateDocument returns the newest document named doc.Name, or stores
	// doc when none exists. The check and the insert are atomic, so concurrent
	// calls for one name store a single document. The bool reports whether doc
	// was stored.
	GetOrCreateDocument(ctx context.Context, doc *core.Document) (*core.Document, bool, error)

	// GetDocument retrieves the most recently inserted document with the given name.
	// Names are matched case-insensitively.
	// Returns ErrNotFound if no document has that name.
	GetDocument(ctx context.Context, name string) (*core.Document, error)

	// GetDocumentByID retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocumentByID(ctx context.Context, id core.ID) (*core.Document, error)

	// GetAllDocuments returns every document in insertion order.
	// The result is read from one consistent snapshot.
	GetAllDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes every document with the given name.
	// Returns ErrNotFound if no document has that name.
	DeleteDocument(ctx context.Context, name string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	// The backend itself is closed separately.
	Close() error
}
