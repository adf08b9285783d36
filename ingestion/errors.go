package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrNoInputFiles is returned when an import finds no files to read.
	ErrNoInputFiles = errors.New("no input files")
)
