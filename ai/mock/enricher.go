package mock

import (
	"context"
	"strings"

	"github.com/weftworks/loom/ai"
)

// MockEnricher is a test double for ai.Enricher.
// It allows custom behavior injection via function fields.
type MockEnricher struct {
	// EnrichFunc is called by Enrich if set.
	// If nil, uses default word-based enrichment.
	EnrichFunc func(ctx context.Context, title, text string) (*ai.Enrichment, error)

	callCount int
}

// NewMockEnricher creates a mock enricher with default behavior.
func NewMockEnricher() *MockEnricher {
	return &MockEnricher{}
}

// Enrich derives simple mock metadata from the text.
// Default behavior: the summary is the first sentence-ish chunk, topics and
// keywords come from the longest words, sentiment is neutral.
func (m *MockEnricher) Enrich(ctx context.Context, title, text string) (*ai.Enrichment, error) {
	m.callCount++

	if m.EnrichFunc != nil {
		return m.EnrichFunc(ctx, title, text)
	}

	summary := text
	if len(summary) > 100 {
		summary = summary[:100]
	}

	var topics, keywords []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if len(word) > 6 && len(topics) < 3 {
			topics = append(topics, word)
		} else if len(word) > 4 && len(keywords) < 5 {
			keywords = append(keywords, word)
		}
	}

	return &ai.Enrichment{
		ProcessedText:  strings.TrimSpace(text),
		Summary:        summary,
		Topics:         topics,
		Keywords:       keywords,
		SentimentScore: 0,
		SentimentLabel: "neutral",
	}, nil
}

// CallCount returns the number of times Enrich was called.
func (m *MockEnricher) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEnricher) Reset() {
	m.callCount = 0
	m.EnrichFunc = nil
}
