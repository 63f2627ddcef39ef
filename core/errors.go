// Copyright 2025 Weftworks
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

// Domain validation errors
var (
	// ErrInvalidContentItem indicates a ContentItem failed validation.
	ErrInvalidContentItem = errors.New("invalid content item")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyRawText indicates the RawText field is empty.
	ErrEmptyRawText = errors.New("raw text cannot be empty")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrEmptyPlatform indicates the Platform field is empty.
	ErrEmptyPlatform = errors.New("platform cannot be empty")

	// ErrInvalidRelationType indicates a relation type outside the closed vocabulary.
	ErrInvalidRelationType = errors.New("invalid relation type")

	// ErrInvalidConfidence indicates a confidence score outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be within [0, 1]")

	// ErrSelfEdge indicates an edge whose source and target are the same item.
	ErrSelfEdge = errors.New("edge cannot connect an item to itself")

	// ErrMissingEdgeEndpoint indicates an edge without a source or target id.
	ErrMissingEdgeEndpoint = errors.New("edge requires both source and target ids")
)
