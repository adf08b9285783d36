package badger

import (
	"encoding/binary"

	"github.com/poiesic/logicsearch/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec:"
	documentNamePrefix  = "docnam:"
	documentClaimPrefix = "docclm:"
	documentIDSeq       = "docseq"
)

// makeDocumentKey generates a key for a document by ID.
// Format: prefix:id, big-endian so prefix iteration follows insertion order.
func makeDocumentKey(id core.ID) []byte {
	buf := make([]byte, len(documentPrefix)+8)
	offset := copy(buf, documentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentNameKey generates a composite key for the name index.
// Format: prefix:nameID:id
func makeDocumentNameKey(name string, id core.ID) []byte {
	buf := make([]byte, len(documentNamePrefix)+16)
	offset := copy(buf, documentNamePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.NameID(name)))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentNameKey generates a partial key for name lookups.
// Format: prefix:nameID
func makePartialDocumentNameKey(name string) []byte {
	buf := make([]byte, len(documentNamePrefix)+8)
	offset := copy(buf, documentNamePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.NameID(name)))
	return buf
}

// makeDocumentClaimKey generates the key that serializes inserts of one name.
// Format: prefix:nameID
func makeDocumentClaimKey(name string) []byte {
	buf := make([]byte, len(documentClaimPrefix)+8)
	offset := copy(buf, documentClaimPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.NameID(name)))
	return buf
}
