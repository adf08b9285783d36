package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/storage"
)

const (
	defaultBatchSize   = 64
	defaultMaxFileSize = 8 << 20
)

// ErrEmptyFile marks a file with no text. Such files are skipped.
var ErrEmptyFile = errors.New("empty file")

// Importer loads text files into a document repository.
type Importer struct {
	repository  storage.DocumentRepository
	pool        *ants.Pool
	batchSize   int
	extensions  []string
	maxFileSize int64
	language    string
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets how many files are read concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = 1
		}
		if im.pool != nil {
			im.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		im.pool = pool
		return nil
	}
}

// WithBatchSize sets how many documents are stored per transaction.
func WithBatchSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		im.batchSize = size
		return nil
	}
}

// WithExtensions restricts directory walks to files with these extensions.
// Default is .txt and .md. Files named explicitly are always read.
func WithExtensions(exts ...string) Option {
	return func(im *Importer) error {
		im.extensions = im.extensions[:0]
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			im.extensions = append(im.extensions, ext)
		}
		if len(im.extensions) == 0 {
			return fmt.Errorf("at least one extension is required")
		}
		return nil
	}
}

// WithMaxFileSize rejects files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(im *Importer) error {
		if n < 1 {
			return fmt.Errorf("max file size must be positive, got %d", n)
		}
		im.maxFileSize = n
		return nil
	}
}

// WithLanguage tags every imported document with lang.
func WithLanguage(lang string) Option {
	return func(im *Importer) error {
		im.language = strings.TrimSpace(lang)
		return nil
	}
}

// WithProgress writes a progress line to w while importing.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) error {
		im.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// NewImporter creates an Importer. Call Release when done.
func NewImporter(repository storage.DocumentRepository, opts ...Option) (*Importer, error) {
	if repository == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	im := &Importer{
		repository:  repository,
		pool:        pool,
		batchSize:   defaultBatchSize,
		extensions:  []string{".txt", ".md"},
		maxFileSize: defaultMaxFileSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(im); err != nil {
			im.Release()
			return nil, err
		}
	}
	return im, nil
}

// Release releases the worker pool.
// The importer should not be used after calling Release.
func (im *Importer) Release() {
	if im.pool != nil {
		im.pool.Release()
	}
}

// Result summarizes an import.
type Result struct {
	// Imported holds stored documents in input order.
	Imported []*core.Document
	// Skipped lists empty files.
	Skipped []string
	// Failed maps unreadable files to their error.
	Failed map[string]error
}

type fileResult struct {
	path string
	doc  *core.Document
	err  error
}

// ImportFiles imports every file named in paths. Directories are walked
// recursively and only files with a configured extension are taken from them.
func (im *Importer) ImportFiles(ctx context.Context, paths ...string) (*Result, error) {
	files, err := im.collect(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInputFiles
	}

	tracker := NewProgressTracker(im.progress, len(files), max(1, len(files)/100))
	tracker.Start()

	results := make([]fileResult, len(files))
	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			doc, err := im.readFile(ctx, path)
			results[i] = fileResult{path: path, doc: doc, err: err}
			switch {
			case err == nil:
				tracker.record(outcomeImported)
			case errors.Is(err, ErrEmptyFile):
				tracker.record(outcomeSkipped)
			default:
				tracker.record(outcomeFailed)
			}
		}
		if err := im.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	tracker.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Failed: make(map[string]error)}
	batch := make([]*core.Document, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		added, err := im.repository.AddDocuments(ctx, batch...)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrRepository, err)
		}
		res.Imported = append(res.Imported, added...)
		batch = batch[:0]
		return nil
	}

	for _, r := range results {
		switch {
		case r.err == nil:
			batch = append(batch, r.doc)
			if len(batch) == im.batchSize {
				if err := flush(); err != nil {
					return res, err
				}
			}
		case errors.Is(r.err, ErrEmptyFile):
			res.Skipped = append(res.Skipped, r.path)
		default:
			im.logger.Warn("failed to read file", "path", r.path, "err", r.err)
			res.Failed[r.path] = r.err
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	im.logger.Info("import complete",
		"imported", len(res.Imported), "skipped", len(res.Skipped), "failed", len(res.Failed),
		"elapsed", tracker.Elapsed())
	return res, nil
}

// collect expands paths into a sorted, duplicate-free file list.
func (im *Importer) collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(p))
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !slices.Contains(im.extensions, strings.ToLower(filepath.Ext(path))) {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		files = append(files, found...)
	}

	seen := make(map[string]struct{}, len(files))
	out := files[:0]
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

func (im *Importer) readFile(ctx context.Context, path string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, im.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > im.maxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", im.maxFileSize)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file is not valid UTF-8")
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrEmptyFile
	}

	link := path
	if abs, err := filepath.Abs(path); err == nil {
		link = "file://" + filepath.ToSlash(abs)
	}

	name := strings.TrimSpace(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if name == "" {
		name = filepath.Base(path)
	}

	return &core.Document{
		Name:     name,
		Text:     text,
		Link:     link,
		Language: im.language,
	}, nil
}
