package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLiteralTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"not python and java", []string{"java"}},
		{"python and java", []string{"python", "java"}},
		{"java or python and java", []string{"java", "python"}},
		{"not (python or ruby)", nil},
		{"a and not (b or c) or d", []string{"a", "d"}},
		{"(x or y) and z", []string{"x", "y", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLiteralTerms(mustParse(t, tt.query)))
		})
	}
}
