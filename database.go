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

// Package loom is a knowledge base for news and social media content. It
// stores crawled items, indexes them for semantic search, and weaves them
// into a typed relationship graph.
package loom

import (
	"log/slog"

	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/ai/openai"
	"github.com/weftworks/loom/graphquery"
	"github.com/weftworks/loom/ingest"
	"github.com/weftworks/loom/relate"
	"github.com/weftworks/loom/search"
	"github.com/weftworks/loom/storage"
	"github.com/weftworks/loom/storage/badger"
)

// Database bundles the three stores and the AI provider behind one handle.
// A single item ID is valid across the document store, the vector index,
// and the graph store.
type Database struct {
	backend  *badger.Backend
	docs     storage.DocumentStore
	vectors  storage.VectorIndex
	graph    storage.GraphStore
	provider ai.Provider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI service configuration used to build the default
// OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built AI provider, bypassing the default
// OpenAI-compatible one. Useful for tests.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory instead of on disk.
func WithInMemoryStorage() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens (or creates) a database at the given path.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	docs, err := badger.NewDocumentStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	vectors, err := badger.NewVectorIndex(backend)
	if err != nil {
		docs.Close()
		backend.Close()
		return nil, err
	}

	graph, err := badger.NewGraphStore(backend)
	if err != nil {
		vectors.Close()
		docs.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			graph.Close()
			docs.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		docs:     docs,
		vectors:  vectors,
		graph:    graph,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the provider and the stores, in reverse dependency order.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.graph.Close(); err != nil {
		db.logger.Error("error closing graph store", "err", err)
		return err
	}
	if err := db.vectors.Close(); err != nil {
		db.logger.Error("error closing vector index", "err", err)
		return err
	}
	if err := db.docs.Close(); err != nil {
		db.logger.Error("error closing document store", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentStore exposes the document store.
func (db *Database) DocumentStore() storage.DocumentStore {
	return db.docs
}

// VectorIndex exposes the vector index.
func (db *Database) VectorIndex() storage.VectorIndex {
	return db.vectors
}

// GraphStore exposes the graph store.
func (db *Database) GraphStore() storage.GraphStore {
	return db.graph
}

// Provider exposes the AI provider.
func (db *Database) Provider() ai.Provider {
	return db.provider
}

// NewCoordinator builds an ingestion coordinator over this database.
func (db *Database) NewCoordinator(opts ...ingest.Option) (*ingest.Coordinator, error) {
	return ingest.NewCoordinator(db.docs, db.vectors, db.provider, opts...)
}

// NewEngine builds a relationship inference engine over this database.
func (db *Database) NewEngine(opts ...relate.Option) (*relate.Engine, error) {
	return relate.NewEngine(db.docs, db.vectors, db.graph, db.provider, opts...)
}

// NewQueryService builds a graph query service over this database.
func (db *Database) NewQueryService(opts ...graphquery.Option) (*graphquery.Service, error) {
	return graphquery.NewService(db.docs, db.graph, opts...)
}

// NewSearcher builds a hybrid searcher over this database.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.docs, db.vectors, db.provider, opts...)
}
