package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Enricher derives metadata from raw content text: processed text, summary,
// topic and keyword tags, sentiment, and named entities.
// Implementations must be thread-safe for concurrent use.
type Enricher interface {
	// Enrich analyzes the content and returns derived fields.
	// Returns an error if the analysis fails; callers treat enrichment
	// failure as non-fatal and may retry later.
	Enrich(ctx context.Context, title, text string) (*Enrichment, error)
}

// RelationClassifier judges whether two content items are related and how.
// Implementations must be thread-safe for concurrent use.
type RelationClassifier interface {
	// ClassifyPair compares two items and returns a structured judgment.
	// The judgment's relation type is a free-form label; callers map it
	// onto the closed vocabulary. A nil Confidence means the service
	// omitted a score.
	ClassifyPair(ctx context.Context, a, b PairItem) (*RelationJudgment, error)
}

// ValueScorer rates the worth of a content item against scoring criteria.
// Implementations must be thread-safe for concurrent use.
type ValueScorer interface {
	// ScoreValue rates the content on a 1-10 scale overall plus a score per
	// criterion. Pass nil criteria for the default set.
	ScoreValue(ctx context.Context, title, text string, criteria []string) (*ValueScore, error)
}

// Provider aggregates the reasoning services for convenient initialization
// and lifecycle management. A provider creates and manages the service
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Enricher returns the content enrichment service.
	// The returned Enricher is safe for concurrent use.
	Enricher() Enricher

	// RelationClassifier returns the pairwise relation judgment service.
	// The returned RelationClassifier is safe for concurrent use.
	RelationClassifier() RelationClassifier

	// ValueScorer returns the content value scoring service.
	// The returned ValueScorer is safe for concurrent use.
	ValueScorer() ValueScorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
