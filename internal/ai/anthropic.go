package ai

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"go.uber.org/zap"
)

// AnthropicClassifier classifies transcripts with Claude. Like the OpenAI
// backend it degrades to keyword matching on any failure.
type AnthropicClassifier struct {
	client   *anthropic.Client
	model    anthropic.Model
	prompts  *config.Prompts
	fallback *KeywordClassifier
}

// NewAnthropicClassifier returns a classifier backed by the Claude API.
func NewAnthropicClassifier(apiKey string, prompts *config.Prompts) *AnthropicClassifier {
	var client *anthropic.Client
	if apiKey != "" {
		c := anthropic.NewClient(option.WithAPIKey(apiKey))
		client = &c
	}
	return &AnthropicClassifier{
		client:   client,
		model:    anthropic.ModelClaude3_5HaikuLatest,
		prompts:  prompts,
		fallback: NewKeywordClassifier(),
	}
}

// Classify implements Classifier.
func (c *AnthropicClassifier) Classify(ctx context.Context, transcript string, available []models.MenuItem) (*VoiceCommand, error) {
	if c.client == nil {
		logger.Get().Debug("anthropic api key not configured, using keyword matching")
		return c.fallback.Classify(ctx, transcript, available)
	}

	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	sysPrompt, err := config.RenderPrompt(c.prompts.Voice.Intent.System, map[string]interface{}{
		"MenuList": FormatMenuList(available),
	})
	if err != nil {
		logger.Get().Error("failed to render intent prompt", zap.Error(err))
		return c.fallback.Classify(ctx, transcript, available)
	}
	userPrompt, err := config.RenderPrompt(c.prompts.Voice.Intent.User, map[string]interface{}{
		"Transcript": transcript,
	})
	if err != nil {
		logger.Get().Error("failed to render intent user prompt", zap.Error(err))
		return c.fallback.Classify(ctx, transcript, available)
	}

	resp, err := c.createMessageWithRetry(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 300,
		System: []anthropic.TextBlockParam{
			{Text: sysPrompt},
		},
		Messages: []anthropic.MessageParam{
			{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(userPrompt)},
			},
		},
	})
	if err != nil {
		logger.Get().Warn("claude classification failed, falling back to keywords", zap.Error(err))
		return c.fallback.Classify(ctx, transcript, available)
	}

	text, err := extractTextContent(resp)
	if err != nil {
		logger.Get().Warn("claude response had no text, falling back to keywords", zap.Error(err))
		return c.fallback.Classify(ctx, transcript, available)
	}

	command, ok := ParseClassification(text, available)
	if !ok {
		return c.fallback.Classify(ctx, transcript, available)
	}
	return command, nil
}

// createMessageWithRetry wraps the Claude API call with linear backoff.
func (c *AnthropicClassifier) createMessageWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		logger.Get().Warn("claude API error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second * time.Duration(i+1)):
		}
	}

	return nil, lastErr
}

func extractTextContent(msg *anthropic.Message) (string, error) {
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("no text content in Claude response")
	}
	return text, nil
}
