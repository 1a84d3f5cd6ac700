package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/util"
	"go.uber.org/zap"
)

// classifyTimeout bounds a single remote classification call. Expiry is
// treated like any other transport failure and falls back to keywords.
const classifyTimeout = 15 * time.Second

// OpenAIClassifier classifies transcripts with the OpenAI chat API, falling
// back to the local keyword classifier on any failure, malformed response,
// or low confidence.
type OpenAIClassifier struct {
	client   *openai.Client
	prompts  *config.Prompts
	fallback *KeywordClassifier
}

// NewOpenAIClassifier returns a classifier backed by the OpenAI chat API.
func NewOpenAIClassifier(apiKey string, prompts *config.Prompts) *OpenAIClassifier {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return &OpenAIClassifier{
		client:   client,
		prompts:  prompts,
		fallback: NewKeywordClassifier(),
	}
}

// Classify implements Classifier. Transport failures, malformed JSON,
// missing credentials, and low confidence all degrade to keyword matching
// rather than surfacing an error.
func (c *OpenAIClassifier) Classify(ctx context.Context, transcript string, available []models.MenuItem) (*VoiceCommand, error) {
	if c.client == nil {
		logger.Get().Debug("openai api key not configured, using keyword matching")
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

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		MaxTokens:   300,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sysPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		logger.Get().Warn("openai classification failed, falling back to keywords", zap.Error(err))
		return c.fallback.Classify(ctx, transcript, available)
	}
	if len(resp.Choices) == 0 {
		logger.Get().Warn("openai returned no choices, falling back to keywords")
		return c.fallback.Classify(ctx, transcript, available)
	}

	command, ok := ParseClassification(resp.Choices[0].Message.Content, available)
	if !ok {
		return c.fallback.Classify(ctx, transcript, available)
	}
	return command, nil
}

// FormatMenuList renders the available menu items for the classifier prompt.
func FormatMenuList(available []models.MenuItem) string {
	var b strings.Builder
	for _, item := range available {
		fmt.Fprintf(&b, "- %s (%s): %d원\n", item.Name, item.NameEn, item.Price)
	}
	return strings.TrimRight(b.String(), "\n")
}

// classificationResponse is the strict JSON contract expected from a remote
// classifier. Any deviation is treated as total classifier failure.
type classificationResponse struct {
	Intent     string        `json:"intent"`
	Items      []CommandItem `json:"items"`
	Confidence float64       `json:"confidence"`
}

// ParseClassification validates raw remote output against the strict JSON
// contract and the live menu list. It returns ok=false when the response is
// unusable and the keyword fallback should run instead.
func ParseClassification(raw string, available []models.MenuItem) (*VoiceCommand, bool) {
	var parsed classificationResponse
	if err := util.DeserializeFromJSONString(strings.TrimSpace(raw), &parsed); err != nil {
		logger.Get().Warn("classifier response is not valid JSON", zap.Error(err))
		return nil, false
	}

	intent := Intent(parsed.Intent)
	switch intent {
	case IntentAddItem, IntentRemoveItem, IntentShowMenu, IntentCheckout, IntentHelp, IntentUnknown:
	default:
		logger.Get().Warn("classifier returned unknown intent", zap.String("intent", parsed.Intent))
		return nil, false
	}

	if parsed.Confidence < ConfidenceThreshold {
		logger.Get().Debug("classifier confidence below threshold",
			zap.Float64("confidence", parsed.Confidence))
		return nil, false
	}

	switch intent {
	case IntentAddItem:
		// Items whose name is not an exact live menu name are discarded.
		valid := make([]CommandItem, 0, len(parsed.Items))
		for _, item := range parsed.Items {
			if !menuNameExists(item.Name, available) {
				continue
			}
			if item.Quantity <= 0 {
				item.Quantity = 1
			}
			valid = append(valid, item)
		}
		if len(valid) == 0 {
			return nil, false
		}
		return &VoiceCommand{
			Intent:     IntentAddItem,
			Items:      valid,
			Confidence: parsed.Confidence,
		}, true

	case IntentRemoveItem:
		if len(parsed.Items) == 0 {
			return nil, false
		}
		return &VoiceCommand{
			Intent:     IntentRemoveItem,
			Entity:     parsed.Items[0].Name,
			Confidence: parsed.Confidence,
		}, true

	case IntentUnknown:
		return nil, false

	default:
		return &VoiceCommand{
			Intent:     intent,
			Confidence: parsed.Confidence,
		}, true
	}
}

func menuNameExists(name string, available []models.MenuItem) bool {
	for _, item := range available {
		if item.Name == name {
			return true
		}
	}
	return false
}
