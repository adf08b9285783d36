package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/logicsearch/config"
	"github.com/poiesic/logicsearch/core"
	"github.com/poiesic/logicsearch/query"
	"github.com/urfave/cli/v2"
	"github.com/valyala/fastjson"
)

const snippetRunes = 160

var arenaPool fastjson.ArenaPool

func outputFormat(c *cli.Context) (string, error) {
	switch f := strings.ToLower(c.String("format")); f {
	case "", "text":
		return "text", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unknown format %q: must be text or json", f)
	}
}

func writeDocuments(w io.Writer, format string, docs []*core.Document) error {
	if format == "json" {
		return writeDocumentsJSON(w, docs)
	}
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "no documents")
		return err
	}
	for i, doc := range docs {
		fmt.Fprintf(w, "%d. %s [%d]\n", i+1, doc.Name, doc.Id)
		if doc.Link != "" {
			fmt.Fprintf(w, "   %s\n", doc.Link)
		}
		fmt.Fprintf(w, "   %s\n", snippet(doc.Text))
	}
	return nil
}

func writeDocumentsJSON(w io.Writer, docs []*core.Document) error {
	a := arenaPool.Get()
	defer arenaPool.Put(a)

	arr := a.NewArray()
	for i, doc := range docs {
		o := a.NewObject()
		o.Set("id", a.NewNumberString(strconv.FormatUint(uint64(doc.Id), 10)))
		o.Set("name", a.NewString(doc.Name))
		o.Set("text", a.NewString(doc.Text))
		if doc.Link != "" {
			o.Set("link", a.NewString(doc.Link))
		}
		if doc.Language != "" {
			o.Set("language", a.NewString(doc.Language))
		}
		if !doc.InsertedAt.IsZero() {
			o.Set("inserted_at", a.NewString(doc.InsertedAt.UTC().Format(time.RFC3339Nano)))
		}
		arr.SetArrayItem(i, o)
	}

	out := arr.MarshalTo(nil)
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes]) + "..."
}

// stageMonitor prints search stages for --verbose.
type stageMonitor struct {
	w io.Writer
}

func (m *stageMonitor) Start(searchID, rawQuery string) {
	fmt.Fprintf(m.w, "search %s: %q\n", searchID, rawQuery)
}

func (m *stageMonitor) AfterNormalization(normalized string) {
	fmt.Fprintf(m.w, "  normalized: %s\n", normalized)
}

func (m *stageMonitor) AfterParse(expr query.Node) {
	fmt.Fprintf(m.w, "  parsed: %s\n", expr)
}

func (m *stageMonitor) AfterCorpusEvaluation(matches []*core.Document) {
	fmt.Fprintf(m.w, "  local matches: %d\n", len(matches))
}

func (m *stageMonitor) FallbackTriggered(terms []string) {
	fmt.Fprintf(m.w, "  fallback terms: %s\n", strings.Join(terms, ", "))
}

func (m *stageMonitor) Enriched(term string, doc *core.Document) {
	fmt.Fprintf(m.w, "  enriched %q -> %s\n", term, doc.Link)
}

func (m *stageMonitor) EnrichmentSkipped(term string, err error) {
	fmt.Fprintf(m.w, "  skipped %q: %v\n", term, err)
}

func (m *stageMonitor) Finish(results []*core.Document) {
	fmt.Fprintf(m.w, "  results: %d\n", len(results))
}
