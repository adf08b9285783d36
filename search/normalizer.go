package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/logicsearch/ai"
	"github.com/poiesic/logicsearch/core"
)

const normalizationPromptTemplate = `Rewrite the request below as a boolean search query.

Use lowercase search terms joined with the operators and, or, not. Use parentheses when grouping is needed.
Reply with the query only. Do not add explanations, quotes or punctuation.

Examples:
Request: I want to see python and java
Query: python and java

Request: I dont want to see python, give me java
Query: not python and java

Request: show me anything about ruby or perl but nothing about rails
Query: (ruby or perl) and not rails

Request: %s
Query:`

// Normalizer rewrites natural-language requests as boolean queries.
type Normalizer struct {
	completer ai.Completer
	logger    *slog.Logger
}

// NewNormalizer creates a Normalizer backed by completer.
func NewNormalizer(completer ai.Completer, logger *slog.Logger) (*Normalizer, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		completer: completer,
		logger:    logger,
	}, nil
}

// Normalize asks the completer to rewrite request.
// Every failure, including an unusable reply, wraps core.ErrExternalService.
func (n *Normalizer) Normalize(ctx context.Context, request string) (string, error) {
	prompt := fmt.Sprintf(normalizationPromptTemplate, strings.TrimSpace(request))

	reply, err := n.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: query normalization: %w", core.ErrExternalService, err)
	}

	normalized := cleanReply(reply)
	if normalized == "" {
		return "", fmt.Errorf("%w: query normalization returned no query", core.ErrExternalService)
	}

	n.logger.Debug("normalized query", "request", request, "query", normalized)
	return normalized, nil
}

// cleanReply extracts the query from a model reply. Models tend to wrap
// answers in fences or quotes, prefix a label, or end with a period.
func cleanReply(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			// Fence lines carry at most a language tag unless the whole
			// answer sits on one fenced line.
			if len(line) <= 6 || !strings.HasSuffix(line, "```") {
				continue
			}
		}
		line = strings.TrimSpace(strings.Trim(line, "`"))
		if line == "" {
			continue
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			label := strings.ToLower(strings.TrimSpace(line[:i]))
			if label == "query" || label == "answer" {
				line = strings.TrimSpace(line[i+1:])
			}
		}
		line = strings.Trim(line, `"'“”«»`)
		line = strings.TrimRight(line, ".!;")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
