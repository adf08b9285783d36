package openai

import (
	"context"
	"testing"

	"github.com/poiesic/logicsearch/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
)

func TestCompleter_Complete(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"plain", "python and java", "python and java"},
		{"whitespace", "  not python and java \n", "not python and java"},
		{"fenced", "```\npython or ruby\n```", "python or ruby"},
		{"fenced with tag", "```text\npython or ruby\n```", "python or ruby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompleterWithModel(fake.NewFakeLLM([]string{tt.response}), 0)
			got, err := c.Complete(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompleter_EmptyReply(t *testing.T) {
	c := NewCompleterWithModel(fake.NewFakeLLM([]string{"   "}), 0)
	_, err := c.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestCompleter_ModelError(t *testing.T) {
	// A fake with no responses fails every call.
	c := NewCompleterWithModel(fake.NewFakeLLM(nil), 0)
	_, err := c.Complete(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434")))
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Completer())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithModel("")))
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "a and b", stripCodeFences("```a and b```"))
	assert.Equal(t, "a and b", stripCodeFences("a and b"))
	assert.Equal(t, "", stripCodeFences("``````"))
}
