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


// Package search runs boolean searches over the document corpus.
//
// A search proceeds in stages:
//   - Normalization (optional): a language model rewrites a natural-language
//     request as a boolean query
//   - Parsing: the query is tokenized and parsed into an expression tree
//   - Corpus evaluation: the tree is evaluated against a snapshot of every
//     document in the repository
//   - Fallback enrichment (optional): when nothing matches, each positive
//     term is looked up in an external knowledge source and the pages found
//     are stored as new documents and returned
//
// Results are boolean matches in repository order. Nothing is scored.
//
// Fallback enrichment writes to the repository. By default a term that
// already names a stored document reuses that document instead of inserting
// a duplicate; WithEnrichmentDedup(false) turns that off.
package search
