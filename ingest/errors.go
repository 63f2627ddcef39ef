package ingest

import "errors"

var (
	// ErrDocumentStoreRequired is returned when a document store is not provided.
	ErrDocumentStoreRequired = errors.New("document store required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrNilItem is returned when Ingest is called with a nil item.
	ErrNilItem = errors.New("content item required")

	// ErrVectorDegraded is returned when the item was stored but its vector
	// could not be indexed after retries. The item remains queryable through
	// the document store; semantic search will not surface it until the
	// vector is backfilled.
	ErrVectorDegraded = errors.New("content stored but vector indexing failed")
)
