package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weftworks/loom/ai"
)

// Scorer implements ai.ValueScorer using OpenAI-compatible chat APIs.
type Scorer struct {
	chat   *chatClient
	logger *slog.Logger
}

// scoringResponse matches the JSON structure requested from the model.
type scoringResponse struct {
	OverallScore   float64            `json:"overall_score"`
	Reason         string             `json:"reason"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
}

// newScorer is an internal constructor that returns the concrete type.
// Used by Provider to share one chat client across services.
func newScorer(chat *chatClient) *Scorer {
	return &Scorer{
		chat:   chat,
		logger: slog.Default().With("component", "openai-scorer"),
	}
}

// NewScorer creates a new value scorer using the provided configuration.
//
// Returns ai.ValueScorer interface to enforce abstraction.
func NewScorer(config *ai.Config) (ai.ValueScorer, error) {
	chat, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newScorer(chat), nil
}

// ScoreValue rates the content against the given criteria using an LLM.
func (s *Scorer) ScoreValue(ctx context.Context, title, text string, criteria []string) (*ai.ValueScore, error) {
	if len(criteria) == 0 {
		criteria = ai.DefaultValueCriteria
	}

	schemaKeys := make([]string, len(criteria))
	for i, c := range criteria {
		schemaKeys[i] = fmt.Sprintf("%q: \"number from 1 to 10\"", c)
	}
	systemPrompt := fmt.Sprintf(scoringSystemPromptTemplate, strings.Join(schemaKeys, ", "))
	user := fmt.Sprintf("Title: %s\n\nText:\n%s", title, clipText(text, 4000))

	var resp scoringResponse
	if err := s.chat.completeJSON(ctx, systemPrompt, user, &resp); err != nil {
		return nil, err
	}

	score := &ai.ValueScore{
		Score:          clampScale(resp.OverallScore),
		Reason:         strings.TrimSpace(resp.Reason),
		CriteriaScores: make(map[string]float64, len(criteria)),
	}
	// Only the requested criteria survive; models sometimes invent extras.
	for _, c := range criteria {
		if v, ok := resp.CriteriaScores[c]; ok {
			score.CriteriaScores[c] = clampScale(v)
		}
	}

	s.logger.Debug("scored content", "overall", score.Score)

	return score, nil
}

// clampScale bounds a rating to the 1-10 scale.
func clampScale(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
