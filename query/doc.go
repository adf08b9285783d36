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


// Package query implements the boolean query language used by logicsearch.
//
// A query is a sequence of terms combined with the operators and, or, not
// and parentheses. Keywords are case-insensitive and so are terms.
//
// # Grammar
//
//	expression := primary ( ("and" | "or") primary )*
//	primary    := "not" primary | "(" expression ")" | TERM
//
// AND and OR share one precedence level and associate left to right, so
// "a and b or c" means "(a and b) or c" while "a or b and c" means
// "(a or b) and c". NOT binds tighter than either. Parentheses override.
//
// # Evaluation
//
// Two evaluation modes exist:
//
//   - EvaluateText checks a single text using case-insensitive substring
//     containment for each term.
//   - MatchIndex.Evaluate and EvaluateCorpus compute the set of documents
//     whose word tokens satisfy the expression. NOT is the complement
//     against every document in the corpus snapshot.
//
// EvaluateStack is a shunting-yard evaluator that fuses parsing and corpus
// evaluation. It produces the same match sets as Parse followed by
// MatchIndex.Evaluate.
//
// # Usage
//
//	expr, err := query.ParseString("python and not (ruby or perl)")
//	if err != nil {
//	    return err // wraps core.ErrMalformedQuery
//	}
//	idx := query.NewMatchIndex(docs)
//	matches := idx.Documents(idx.Evaluate(expr))
//
// Nothing in this package is shared between queries. A MatchIndex belongs to
// a single search and is not safe for concurrent use.
package query
