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

package mock

import "github.com/weftworks/loom/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock service instances.
type MockProvider struct {
	embedder   *MockEmbedder
	enricher   *MockEnricher
	classifier *MockClassifier
	scorer     *MockScorer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use the GetMockX accessors to reach concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		enricher:   NewMockEnricher(),
		classifier: NewMockClassifier(),
		scorer:     NewMockScorer(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Enricher returns the mock enricher.
func (p *MockProvider) Enricher() ai.Enricher {
	return p.enricher
}

// RelationClassifier returns the mock classifier.
func (p *MockProvider) RelationClassifier() ai.RelationClassifier {
	return p.classifier
}

// ValueScorer returns the mock scorer.
func (p *MockProvider) ValueScorer() ai.ValueScorer {
	return p.scorer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockEnricher returns the underlying mock enricher for test assertions.
func (p *MockProvider) GetMockEnricher() *MockEnricher {
	return p.enricher
}

// GetMockClassifier returns the underlying mock classifier for test assertions.
func (p *MockProvider) GetMockClassifier() *MockClassifier {
	return p.classifier
}

// GetMockScorer returns the underlying mock scorer for test assertions.
func (p *MockProvider) GetMockScorer() *MockScorer {
	return p.scorer
}
