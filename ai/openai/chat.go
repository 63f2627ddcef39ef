package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/weftworks/loom/ai"
	"golang.org/x/time/rate"
)

// chatClient wraps an OpenAI-compatible chat model with rate limiting and
// structured-output plumbing. All chat-based services share one instance so
// they draw from the same rate budget.
type chatClient struct {
	model   llms.Model
	limiter *rate.Limiter
	logger  *slog.Logger
}

func newChatClient(config *ai.Config) (*chatClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestBurst)
	}

	return &chatClient{
		model:   client,
		limiter: limiter,
		logger:  slog.Default().With("component", "openai-chat"),
	}, nil
}

// completeJSON sends a system+user prompt pair and unmarshals the model's
// JSON response into out. Malformed responses are retried up to 3 times with
// fence stripping and JSON repair applied before each parse attempt.
func (c *chatClient) completeJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		response, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from model")
			return ErrEmptyResponse
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			c.logger.Warn("error parsing model response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		return nil
	}

	c.logger.Error("failed to parse model response after retries", "err", lastErr)
	return fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
}

// stripCodeFences removes markdown code fences some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
