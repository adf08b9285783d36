// Package ingestion bulk-loads plain-text files into the document corpus.
//
// The Importer walks the given paths, reads matching files concurrently on a
// worker pool, and stores them in batches. Each file becomes one document
// named after the file. Unreadable files are reported in the result and do
// not stop the import; a repository failure does.
package ingestion
