package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDocument(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{Id: 1, Name: "python", Text: "python is a language", InsertedAt: validTime},
			wantErr: nil,
		},
		{
			name:    "valid document with ID 0 and zero time",
			doc:     &Document{Name: "python"},
			wantErr: nil,
		},
		{
			name:    "valid document with empty text",
			doc:     &Document{Name: "empty"},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty name",
			doc:     &Document{Text: "orphan"},
			wantErr: ErrEmptyDocumentName,
		},
		{
			name:    "blank name",
			doc:     &Document{Name: "   ", Text: "orphan"},
			wantErr: ErrEmptyDocumentName,
		},
		{
			name:    "future insertion time",
			doc:     &Document{Name: "later", InsertedAt: futureTime},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error = %v, want wrapped %v", err, ErrInvalidDocument)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	if !IsValidTimestamp(time.Now().Add(-time.Minute)) {
		t.Error("past timestamp reported invalid")
	}
	if IsValidTimestamp(time.Now().Add(time.Hour)) {
		t.Error("future timestamp reported valid")
	}
}
