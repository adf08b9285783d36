// Package mock provides a test double for knowledge.Source.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/logicsearch/knowledge"
)

// MockSource is a test double for knowledge.Source.
// Pages and Errors are keyed by lower-cased title.
type MockSource struct {
	// LookupPageFunc is called by LookupPage if set.
	LookupPageFunc func(ctx context.Context, title string) (*knowledge.Page, error)

	// Pages holds canned results.
	Pages map[string]*knowledge.Page

	// Errors holds canned failures. Checked before Pages.
	Errors map[string]error

	mu     sync.Mutex
	titles []string
}

// NewMockSource creates an empty mock source. Every lookup returns
// knowledge.ErrPageNotFound until pages are added.
// Note: Returns concrete type to allow test assertions.
func NewMockSource() *MockSource {
	return &MockSource{
		Pages:  make(map[string]*knowledge.Page),
		Errors: make(map[string]error),
	}
}

// WithPage registers a page under title and returns the mock for chaining.
func (m *MockSource) WithPage(title, summary, url string) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pages[strings.ToLower(title)] = &knowledge.Page{Title: title, Summary: summary, URL: url}
	return m
}

// WithError registers a failure for title and returns the mock for chaining.
func (m *MockSource) WithError(title string, err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[strings.ToLower(title)] = err
	return m
}

// LookupPage records the title and returns the configured outcome.
func (m *MockSource) LookupPage(ctx context.Context, title string) (*knowledge.Page, error) {
	m.mu.Lock()
	m.titles = append(m.titles, title)
	fn := m.LookupPageFunc
	err, hasErr := m.Errors[strings.ToLower(title)]
	page, hasPage := m.Pages[strings.ToLower(title)]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, title)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hasErr {
		return nil, err
	}
	if hasPage {
		p := *page
		return &p, nil
	}
	return nil, knowledge.ErrPageNotFound
}

// CallCount returns the number of lookups performed.
func (m *MockSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

// Titles returns every looked-up title in call order.
func (m *MockSource) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles...)
}

// Reset clears recorded lookups.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = nil
}
