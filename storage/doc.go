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


// Package storage defines the three persistence adapters the pipeline spans:
// a DocumentStore for full content records, a VectorIndex for embeddings, and
// a GraphStore for typed relationship edges.
//
// The three stores share one join key: a content item's core.ID, assigned by
// the DocumentStore at first persistence. The vector entry and any graph node
// for an item always carry that same id, so each store can be rebuilt or
// repaired from the document store alone.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return these interfaces
// rather than concrete types:
//
//	docs, err := badger.NewDocumentStore(backend)  // returns storage.DocumentStore
//
// This keeps callers decoupled from the backing engine and lets tests swap in
// in-memory implementations without modification.
//
// # Consistency model
//
// There is no distributed transaction across the stores. Instead every write
// is individually idempotent and keyed by the content id, so a coordinator
// can re-run any step after a partial failure:
//
//   - DocumentStore.Put dedupes on provenance fingerprint
//   - VectorIndex.Upsert supersedes the previous embedding for the id
//   - GraphStore.CreateEdgeIfAbsent suppresses duplicate triples
//
// # Thread Safety
//
// All implementations must be safe for concurrent use from multiple
// goroutines; callers perform no external locking.
package storage
