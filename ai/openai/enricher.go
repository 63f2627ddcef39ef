package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weftworks/loom/ai"
)

// Enricher implements ai.Enricher using OpenAI-compatible chat APIs.
type Enricher struct {
	chat   *chatClient
	logger *slog.Logger
}

// enrichmentResponse matches the JSON structure requested from the model.
type enrichmentResponse struct {
	ProcessedText string   `json:"processed_text"`
	Summary       string   `json:"summary"`
	Topics        []string `json:"topics"`
	Keywords      []string `json:"keywords"`
	Sentiment     struct {
		Score float64 `json:"score"`
		Label string  `json:"label"`
	} `json:"sentiment"`
	Entities []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"entities"`
}

// newEnricher is an internal constructor that returns the concrete type.
// Used by Provider to share one chat client across services.
func newEnricher(chat *chatClient) *Enricher {
	return &Enricher{
		chat:   chat,
		logger: slog.Default().With("component", "openai-enricher"),
	}
}

// NewEnricher creates a new enricher using the provided configuration.
//
// Returns ai.Enricher interface to enforce abstraction.
func NewEnricher(config *ai.Config) (ai.Enricher, error) {
	chat, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newEnricher(chat), nil
}

// Enrich derives metadata from the content using an LLM.
func (e *Enricher) Enrich(ctx context.Context, title, text string) (*ai.Enrichment, error) {
	user := fmt.Sprintf("Title: %s\n\nText:\n%s", title, text)

	var resp enrichmentResponse
	if err := e.chat.completeJSON(ctx, enrichmentSystemPrompt, user, &resp); err != nil {
		return nil, err
	}

	enrichment := &ai.Enrichment{
		ProcessedText:  strings.TrimSpace(resp.ProcessedText),
		Summary:        strings.TrimSpace(resp.Summary),
		Topics:         resp.Topics,
		Keywords:       resp.Keywords,
		SentimentScore: resp.Sentiment.Score,
		SentimentLabel: normalizeSentimentLabel(resp.Sentiment.Label),
	}
	for _, ent := range resp.Entities {
		if strings.TrimSpace(ent.Text) == "" {
			continue
		}
		enrichment.Entities = append(enrichment.Entities, ai.ExtractedEntity{
			Text: strings.TrimSpace(ent.Text),
			Type: strings.ToLower(strings.TrimSpace(ent.Type)),
		})
	}

	e.logger.Debug("enriched content",
		"topics", len(enrichment.Topics),
		"keywords", len(enrichment.Keywords),
		"entities", len(enrichment.Entities))

	return enrichment, nil
}

// normalizeSentimentLabel maps loosely phrased labels onto the closed set.
func normalizeSentimentLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "pos":
		return "positive"
	case "negative", "neg":
		return "negative"
	default:
		return "neutral"
	}
}
