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

// Package ai provides abstractions for the AI services used in Loom.
//
// This package defines interfaces for AI operations including text embeddings,
// content enrichment, pairwise relation judgment, and value scoring. It follows
// the dependency inversion principle, allowing the ingestion and inference
// layers to depend on abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around four capability interfaces plus an aggregate:
//
//   - Embedder: Generates vector embeddings from text
//   - Enricher: Derives summary, tags, sentiment, and entities from content
//   - RelationClassifier: Judges whether and how two items relate
//   - ValueScorer: Rates content worth against criteria
//   - Provider: Aggregates the services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewEmbedder, mock.NewClassifier, etc.)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public methods (CallCount, WithXFunc, Reset).
package ai
