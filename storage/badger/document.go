package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/storage"
)

// maxConflictRetries bounds how often GetOrCreateDocument reruns a
// transaction that lost a write conflict.
const maxConflictRetries = 16

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocuments adds one or more documents to storage.
// The caller's documents are left untouched; stored copies are returned.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	var added []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		added = make([]*core.Document, 0, len(docs))
		for _, doc := range docs {
			stored, err := r.insertDocument(tx, doc)
			if err != nil {
				return err
			}
			added = append(added, stored)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return added, nil
}

// CreateDocument adds a single document.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	added, err := r.AddDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// GetOrCreateDocument returns the newest document named doc.Name, storing doc
// only when no such document exists. Concurrent calls for one name store at
// most one document.
func (r *DocumentRepository) GetOrCreateDocument(ctx context.Context, doc *core.Document) (*core.Document, bool, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, false, err
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		var result *core.Document
		var created bool
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			// Every writer of a name reads and writes its claim key, so two
			// transactions inserting the same name conflict at commit.
			claim := makeDocumentClaimKey(doc.Name)
			if _, err := tx.Get(claim); err != nil && err != badger.ErrKeyNotFound {
				return err
			}

			existing, err := findNewestByName(tx, doc.Name)
			if err != nil {
				return err
			}
			if existing != nil {
				result = existing
				return nil
			}

			stored, err := r.insertDocument(tx, doc)
			if err != nil {
				return err
			}
			if err := tx.Set(claim, storage.MarshalID(stored.Id)); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			result, created = stored, true
			return nil
		}, true)
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return result, created, nil
	}
}

// GetDocument retrieves the most recently inserted document with the given name.
func (r *DocumentRepository) GetDocument(ctx context.Context, name string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := findNewestByName(tx, name)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		result = doc
		return nil
	}, false)
	return result, err
}

// GetDocumentByID retrieves a single document by ID.
func (r *DocumentRepository) GetDocumentByID(ctx context.Context, id core.ID) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllDocuments retrieves all documents in insertion order.
func (r *DocumentRepository) GetAllDocuments(ctx context.Context) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteDocument removes every document with the given name.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := findIDsByName(tx, name)
		if err != nil {
			return err
		}
		deleted := 0
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil || !sameName(doc.Name, name) {
				continue
			}
			if err := tx.Delete(makeDocumentNameKey(doc.Name, id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		if deleted == 0 {
			return storage.ErrNotFound
		}
		return tx.Commit()
	}, true)
}

// Count returns the number of stored documents.
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// insertDocument writes a copy of doc under a fresh ID. The copy is returned;
// doc itself is not modified.
func (r *DocumentRepository) insertDocument(tx *badger.Txn, doc *core.Document) (*core.Document, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return nil, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return nil, err
		}
	}

	stored := *doc
	stored.Id = core.ID(nextID)
	stored.InsertedAt = time.Now().UTC()

	if err := tx.Set(makeDocumentKey(stored.Id), storage.MarshalDocument(&stored)); err != nil {
		return nil, err
	}
	if err := tx.Set(makeDocumentNameKey(stored.Name, stored.Id), storage.MarshalID(stored.Id)); err != nil {
		return nil, err
	}
	return &stored, nil
}

// findNewestByName returns the most recently inserted document named name,
// or nil when there is none.
func findNewestByName(tx *badger.Txn, name string) (*core.Document, error) {
	ids, err := findIDsByName(tx, name)
	if err != nil {
		return nil, err
	}
	// IDs come back ascending; walk from the newest.
	for i := len(ids) - 1; i >= 0; i-- {
		doc, err := readDocument(tx, makeDocumentKey(ids[i]))
		if err != nil {
			return nil, err
		}
		if doc != nil && sameName(doc.Name, name) {
			return doc, nil
		}
	}
	return nil, nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// findIDsByName scans the name index and returns matching IDs in ascending order.
func findIDsByName(tx *badger.Txn, name string) ([]core.ID, error) {
	prefix := makePartialDocumentNameKey(name)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if !bytes.HasPrefix(key, prefix) || len(key) != len(prefix)+8 {
			continue
		}
		ids = append(ids, core.ID(binary.BigEndian.Uint64(key[len(prefix):])))
	}
	return ids, nil
}

// readDocument reads a document from the transaction.
// Returns nil, nil when the key is absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
