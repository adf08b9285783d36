package search

import (
	"context"
	"errors"
	"testing"

	aimock "github.com/poiesic/logicsearch/ai/mock"
	"github.com/poiesic/logicsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizer(t *testing.T) {
	_, err := NewNormalizer(nil, nil)
	assert.Equal(t, ErrCompleterRequired, err)

	n, err := NewNormalizer(aimock.NewMockCompleter("x"), nil)
	require.NoError(t, err)
	assert.NotNil(t, n.logger)
}

func TestNormalize(t *testing.T) {
	completer := aimock.NewMockCompleter("ruby or perl")
	n, err := NewNormalizer(completer, nil)
	require.NoError(t, err)

	got, err := n.Normalize(context.Background(), "  anything about ruby or perl  ")
	require.NoError(t, err)
	assert.Equal(t, "ruby or perl", got)

	prompts := completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Request: anything about ruby or perl\nQuery:")
}

func TestNormalize_Failures(t *testing.T) {
	t.Run("completer error", func(t *testing.T) {
		cause := errors.New("unauthorized")
		n, err := NewNormalizer(&aimock.MockCompleter{
			CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
				return "", cause
			},
		}, nil)
		require.NoError(t, err)

		_, err = n.Normalize(context.Background(), "python")
		assert.ErrorIs(t, err, core.ErrExternalService)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("empty reply", func(t *testing.T) {
		n, err := NewNormalizer(&aimock.MockCompleter{
			CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
				return "```\n```", nil
			},
		}, nil)
		require.NoError(t, err)

		_, err = n.Normalize(context.Background(), "python")
		assert.ErrorIs(t, err, core.ErrExternalService)
	})

	t.Run("canceled context", func(t *testing.T) {
		n, err := NewNormalizer(aimock.NewMockCompleter("python"), nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = n.Normalize(ctx, "python")
		assert.ErrorIs(t, err, core.ErrExternalService)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCleanReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain", "python and java", "python and java"},
		{"surrounding whitespace", "\n  python and java \n", "python and java"},
		{"label", "Query: not python and java", "not python and java"},
		{"answer label", "answer: python", "python"},
		{"trailing period", "python or ruby.", "python or ruby"},
		{"quoted", `"python and java"`, "python and java"},
		{"fenced block", "```text\npython and (java or go)\n```", "python and (java or go)"},
		{"single fenced line", "```python and java```", "python and java"},
		{"inline code", "`python`", "python"},
		{"first line wins", "python and java\nThis query finds both.", "python and java"},
		{"colon without label", "c: drive", "c: drive"},
		{"empty", "", ""},
		{"only punctuation", `"."`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanReply(tt.reply))
		})
	}
}
