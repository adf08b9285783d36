// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package knowledge defines the external knowledge source consulted when a
// search finds nothing in the local corpus.
//
// A Source resolves a title to a page summary. Lookups either succeed, fail
// with ErrPageNotFound, or fail with an *AmbiguousError listing candidate
// titles the caller may retry with. Any other error is a transport or
// service failure.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrPageNotFound indicates the knowledge source has no page for the title.
var ErrPageNotFound = errors.New("page not found")

// Page is a resolved knowledge-source entry.
type Page struct {
	Title   string
	Summary string
	URL     string
}

// AmbiguousError is returned when a title names several pages.
// Candidates is never empty and keeps the source's ordering.
type AmbiguousError struct {
	Title      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q is ambiguous: %s", e.Title, strings.Join(e.Candidates, ", "))
}

// Source looks up pages by title.
// Implementations must be safe for concurrent use.
type Source interface {
	LookupPage(ctx context.Context, title string) (*Page, error)
}

// AsAmbiguous unwraps err into an *AmbiguousError.
func AsAmbiguous(err error) (*AmbiguousError, bool) {
	var amb *AmbiguousError
	if errors.As(err, &amb) && len(amb.Candidates) > 0 {
		return amb, true
	}
	return nil, false
}
