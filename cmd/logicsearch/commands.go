package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poiesic/logicsearch"
	"github.com/poiesic/logicsearch/ai"
	"github.com/poiesic/logicsearch/config"
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/ingestion"
	"github.com/poiesic/logicsearch/knowledge/wikipedia"
	"github.com/poiesic/logicsearch/search"
	"github.com/poiesic/logicsearch/storage"
	"github.com/urfave/cli/v2"
)

// openDatabase builds a Database from config overlaid with command flags.
func openDatabase(c *cli.Context, withServices bool) (*logicsearch.Database, error) {
	cfg := appConfig(c)

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	opts := []logicsearch.DatabaseOption{}
	if withServices {
		aiOpts, err := aiOptions(c, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, aiOpts...)
		opts = append(opts, knowledgeOptions(c, cfg)...)
	} else {
		opts = append(opts, logicsearch.WithoutNormalizer(), logicsearch.WithoutKnowledgeSource())
	}

	db, err := logicsearch.NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func aiOptions(c *cli.Context, cfg *config.Config) ([]logicsearch.DatabaseOption, error) {
	enabled := (cfg.AI.Enabled || c.Bool("normalize")) && !c.Bool("no-normalize")
	if !enabled {
		return []logicsearch.DatabaseOption{logicsearch.WithoutNormalizer()}, nil
	}

	aiConfig := cfg.AIConfig()
	if host := c.String("host"); host != "" {
		aiConfig.CompletionHost = host
	}
	if model := c.String("model"); model != "" {
		aiConfig.CompletionModel = model
	}
	if key := c.String("api-key"); key != "" {
		aiConfig.APIKey = key
	}
	if timeout := c.Duration("timeout"); timeout > 0 {
		aiConfig.Timeout = timeout
	}
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return []logicsearch.DatabaseOption{logicsearch.WithAIConfig(aiConfig)}, nil
}

func knowledgeOptions(c *cli.Context, cfg *config.Config) []logicsearch.DatabaseOption {
	if !cfg.Knowledge.Enabled || !cfg.Search.Fallback || c.Bool("no-fallback") {
		return []logicsearch.DatabaseOption{logicsearch.WithoutKnowledgeSource()}
	}

	lang := cfg.Knowledge.Language
	if l := c.String("lang"); l != "" {
		lang = l
	}
	wikiOpts := []wikipedia.Option{
		wikipedia.WithLanguage(lang),
		wikipedia.WithRateLimit(cfg.Knowledge.RateLimit),
		wikipedia.WithAutoSuggest(cfg.Knowledge.AutoSuggest),
	}
	if cfg.Knowledge.UserAgent != "" {
		wikiOpts = append(wikiOpts, wikipedia.WithUserAgent(cfg.Knowledge.UserAgent))
	}
	return []logicsearch.DatabaseOption{logicsearch.WithWikipedia(wikiOpts...)}
}

func searchOptions(c *cli.Context, cfg *config.Config) ([]search.Option, error) {
	evaluator := cfg.Search.Evaluator
	if ev := c.String("evaluator"); ev != "" {
		evaluator = ev
	}
	var ev search.Evaluator
	switch evaluator {
	case "tree":
		ev = search.EvaluatorTree
	case "stack":
		ev = search.EvaluatorStack
	default:
		return nil, fmt.Errorf("unknown evaluator %q: must be tree or stack", evaluator)
	}

	timeout := cfg.Search.ExternalTimeout.Duration
	if t := c.Duration("timeout"); t > 0 {
		timeout = t
	}

	return []search.Option{
		search.WithEvaluator(ev),
		search.WithFallback(cfg.Search.Fallback && !c.Bool("no-fallback")),
		search.WithEnrichmentDedup(cfg.Search.Dedup && !c.Bool("no-dedup")),
		search.WithPoolSize(cfg.Search.PoolSize),
		search.WithExternalTimeout(timeout),
		search.WithMaxAttempts(cfg.Search.MaxAttempts),
		search.WithMaxSummaryLength(cfg.Search.MaxSummaryLength),
	}, nil
}

func searchCommand(c *cli.Context) error {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return fmt.Errorf("a query is required")
	}
	format, err := outputFormat(c)
	if err != nil {
		return err
	}
	searchOpts, err := searchOptions(c, appConfig(c))
	if err != nil {
		return err
	}

	db, err := openDatabase(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(searchOpts...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Close()

	var monitor search.SearchMonitor
	if c.Bool("verbose") {
		monitor = &stageMonitor{w: c.App.ErrWriter}
	}

	results, err := searcher.SearchWithMonitor(c.Context, q, monitor)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMalformedQuery):
			return cli.Exit(err.Error(), 2)
		case errors.Is(err, core.ErrExternalService):
			return cli.Exit(err.Error(), 3)
		}
		return fmt.Errorf("search failed: %w", err)
	}
	return writeDocuments(c.App.Writer, format, results)
}

func addCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}

	text := c.String("text")
	if !c.IsSet("text") {
		data, err := io.ReadAll(stdin(c))
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("document text is empty")
	}

	db, err := openDatabase(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.DocumentRepository().CreateDocument(c.Context, &core.Document{
		Name:     c.String("name"),
		Text:     text,
		Link:     c.String("link"),
		Language: c.String("lang"),
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return writeDocuments(c.App.Writer, format, []*core.Document{doc})
}

func getCommand(c *cli.Context) error {
	name, err := nameArg(c)
	if err != nil {
		return err
	}
	format, err := outputFormat(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.DocumentRepository().GetDocument(c.Context, name)
	if errors.Is(err, storage.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("no document named %q", name), 1)
	}
	if err != nil {
		return err
	}
	return writeDocuments(c.App.Writer, format, []*core.Document{doc})
}

func deleteCommand(c *cli.Context) error {
	name, err := nameArg(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.DocumentRepository().DeleteDocument(c.Context, name)
	if errors.Is(err, storage.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("no document named %q", name), 1)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %q\n", name)
	return nil
}

func listCommand(c *cli.Context) error {
	format, err := outputFormat(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.DocumentRepository().GetAllDocuments(c.Context)
	if err != nil {
		return err
	}
	return writeDocuments(c.App.Writer, format, docs)
}

func importCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one path is required")
	}

	db, err := openDatabase(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{
		ingestion.WithPoolSize(c.Int("workers")),
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithExtensions(c.StringSlice("ext")...),
		ingestion.WithLanguage(c.String("lang")),
	}
	if !c.Bool("quiet") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}

	importer, err := db.NewImporter(opts...)
	if err != nil {
		return err
	}
	defer importer.Release()

	res, err := importer.ImportFiles(c.Context, c.Args().Slice()...)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "imported %d, skipped %d, failed %d\n",
		len(res.Imported), len(res.Skipped), len(res.Failed))
	for path, ferr := range res.Failed {
		fmt.Fprintf(c.App.ErrWriter, "  %s: %v\n", path, ferr)
	}
	return nil
}

func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg := *appConfig(c)
	if cfg.AI.APIKey != "" && cfg.AI.APIKey != ai.DefaultConfig().APIKey {
		cfg.AI.APIKey = "********"
	}
	path := c.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	fmt.Fprintf(c.App.Writer, "# %s\n", path)
	return writeConfig(c.App.Writer, &cfg)
}

func nameArg(c *cli.Context) (string, error) {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return "", fmt.Errorf("a document name is required")
	}
	return name, nil
}

func stdin(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}
