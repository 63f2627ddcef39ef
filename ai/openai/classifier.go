package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weftworks/loom/ai"
)

// Classifier implements ai.RelationClassifier using OpenAI-compatible chat APIs.
type Classifier struct {
	chat   *chatClient
	logger *slog.Logger
}

// classificationResponse matches the JSON structure requested from the model.
// Confidence is a pointer so a missing field is distinguishable from 0.
type classificationResponse struct {
	HasRelation  bool     `json:"has_relation"`
	RelationType string   `json:"relation_type"`
	Description  string   `json:"description"`
	Confidence   *float64 `json:"confidence"`
}

// newClassifier is an internal constructor that returns the concrete type.
// Used by Provider to share one chat client across services.
func newClassifier(chat *chatClient) *Classifier {
	return &Classifier{
		chat:   chat,
		logger: slog.Default().With("component", "openai-classifier"),
	}
}

// NewClassifier creates a new relation classifier using the provided configuration.
//
// Returns ai.RelationClassifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.RelationClassifier, error) {
	chat, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newClassifier(chat), nil
}

// ClassifyPair judges whether two items are related using an LLM.
// A malformed response after retries is reported as "no relation" rather than
// an error, so one stubborn pair cannot abort a whole analysis batch.
func (c *Classifier) ClassifyPair(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
	user := fmt.Sprintf(
		"Article 1 title: %s\nArticle 1 text:\n%s\n\nArticle 2 title: %s\nArticle 2 text:\n%s",
		a.Title, clipText(a.Text, 2000),
		b.Title, clipText(b.Text, 2000),
	)

	var resp classificationResponse
	if err := c.chat.completeJSON(ctx, classificationSystemPrompt, user, &resp); err != nil {
		if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrEmptyResponse) {
			c.logger.Warn("treating unparseable judgment as no relation", "err", err)
			return &ai.RelationJudgment{HasRelation: false}, nil
		}
		return nil, err
	}

	judgment := &ai.RelationJudgment{
		HasRelation:  resp.HasRelation,
		RelationType: strings.TrimSpace(resp.RelationType),
		Description:  strings.TrimSpace(resp.Description),
		Confidence:   resp.Confidence,
	}

	c.logger.Debug("classified pair",
		"has_relation", judgment.HasRelation,
		"relation_type", judgment.RelationType)

	return judgment, nil
}

// clipText bounds the prompt size for long articles without splitting a rune.
func clipText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for i := max; i > 0; i-- {
		if (s[i] & 0xC0) != 0x80 {
			return s[:i]
		}
	}
	return ""
}
