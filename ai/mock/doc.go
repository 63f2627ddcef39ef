// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Enricher,
// ai.RelationClassifier, ai.ValueScorer, and ai.Provider for use in unit
// tests. The mocks allow tests to run without external AI service dependencies
// and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embedding, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockClassifier := mock.NewMockClassifier()
//	mockClassifier.ClassifyPairFunc = func(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
//	    return &ai.RelationJudgment{HasRelation: true, RelationType: "causal"}, nil
//	}
//
//	// Check call counts
//	count := mockClassifier.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockEnricher: Derives summary and tags from the words in the text
//   - MockClassifier: Judges every pair unrelated
//   - MockScorer: Returns a flat midpoint score
package mock
