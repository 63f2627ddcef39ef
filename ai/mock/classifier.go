package mock

import (
	"context"

	"github.com/weftworks/loom/ai"
)

// MockClassifier is a test double for ai.RelationClassifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// ClassifyPairFunc is called by ClassifyPair if set.
	// If nil, every pair is judged unrelated.
	ClassifyPairFunc func(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error)

	callCount int
}

// NewMockClassifier creates a mock classifier that judges every pair unrelated.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// ClassifyPair returns the injected judgment, or "no relation" by default.
func (m *MockClassifier) ClassifyPair(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
	m.callCount++

	if m.ClassifyPairFunc != nil {
		return m.ClassifyPairFunc(ctx, a, b)
	}

	return &ai.RelationJudgment{HasRelation: false}, nil
}

// CallCount returns the number of times ClassifyPair was called.
func (m *MockClassifier) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockClassifier) Reset() {
	m.callCount = 0
	m.ClassifyPairFunc = nil
}
