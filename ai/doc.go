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


// Package ai provides abstractions for AI services used in logicsearch.
//
// The only AI operation the search engine needs is text completion: the
// query normalizer asks a language model to rewrite a natural-language
// request as a boolean query. Business logic depends on the Completer
// interface, never on a concrete client.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewCompleter) return
// INTERFACE types to enforce abstraction:
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockCompleter) return CONCRETE types to
// enable test assertions and behavior injection:
//
//	completer := mock.NewMockCompleter("python and java")
//	count := completer.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithModel("gpt-3.5-turbo"), ai.WithAPIKey(key))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	reply, err := provider.Completer().Complete(ctx, prompt)
package ai
