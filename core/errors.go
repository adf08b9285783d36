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


package core

import "errors"

// Search errors
var (
	// ErrMalformedQuery indicates the query could not be tokenized or parsed.
	// It is never retried.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrExternalService indicates a failure talking to the completion
	// service or the knowledge source, including timeouts.
	ErrExternalService = errors.New("external service failure")

	// ErrRepository indicates the document repository could not be read or written.
	ErrRepository = errors.New("repository failure")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyDocumentName indicates the Name field is blank.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
