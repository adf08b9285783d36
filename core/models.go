package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Documents get theirs from a database sequence; index keys use content hashes.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NameID returns the content ID used to index a document name.
// Names are compared case-insensitively.
func NameID(name string) ID {
	return IDFromContent(strings.ToLower(strings.TrimSpace(name)))
}

// Document is a named text in the searchable corpus.
type Document struct {
	Id         ID
	Name       string
	Text       string
	Link       string    // Source URL, set for documents materialized from the knowledge source
	Language   string    // Optional language tag, never inferred
	InsertedAt time.Time // When the document was inserted into the database
}
