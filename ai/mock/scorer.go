package mock

import (
	"context"

	"github.com/weftworks/loom/ai"
)

// MockScorer is a test double for ai.ValueScorer.
// It allows custom behavior injection via function fields.
type MockScorer struct {
	// ScoreValueFunc is called by ScoreValue if set.
	// If nil, every item scores a flat 5 on every criterion.
	ScoreValueFunc func(ctx context.Context, title, text string, criteria []string) (*ai.ValueScore, error)

	callCount int
}

// NewMockScorer creates a mock scorer with default flat scoring.
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// ScoreValue returns the injected score, or a flat midpoint score by default.
func (m *MockScorer) ScoreValue(ctx context.Context, title, text string, criteria []string) (*ai.ValueScore, error) {
	m.callCount++

	if m.ScoreValueFunc != nil {
		return m.ScoreValueFunc(ctx, title, text, criteria)
	}

	if len(criteria) == 0 {
		criteria = ai.DefaultValueCriteria
	}
	scores := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		scores[c] = 5
	}

	return &ai.ValueScore{
		Score:          5,
		Reason:         "mock midpoint score",
		CriteriaScores: scores,
	}, nil
}

// CallCount returns the number of times ScoreValue was called.
func (m *MockScorer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockScorer) Reset() {
	m.callCount = 0
	m.ScoreValueFunc = nil
}
