// Package ingest provides the ingestion path for content items.
//
// The Coordinator type manages the ingestion workflow:
//   - Enriching items with derived metadata (non-fatal on failure)
//   - Persisting items to the document store (the commit point)
//   - Indexing embeddings for semantic search (retried, degrades on failure)
//   - Dispatching a post-ingest hook, optionally on a worker pool
//
// An item whose enrichment fails is stored with NeedsEnrichment set so the
// enrich package can backfill it later. An item whose vector indexing fails
// is still stored and queryable; Ingest reports this with ErrVectorDegraded.
package ingest
