package ai

import (
	"context"

	"github.com/mealpoint/kiosk-api/internal/models"
)

// Intent is the classified purpose of an utterance.
type Intent string

// Known intents.
const (
	IntentAddItem    Intent = "add_item"
	IntentRemoveItem Intent = "remove_item"
	IntentShowMenu   Intent = "show_menu"
	IntentCheckout   Intent = "checkout"
	IntentHelp       Intent = "help"
	IntentUnknown    Intent = "unknown"
)

// ConfidenceThreshold is the confidence below which a remote classification
// is discarded in favor of keyword matching, and below which an exact-match
// add becomes a yes/no confirmation.
const ConfidenceThreshold = 0.6

// CommandItem is one (name, quantity) pair in a compound utterance.
type CommandItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// VoiceCommand is the structured guess produced by a classifier. It is
// transient: consumed by the resolver and never persisted.
type VoiceCommand struct {
	Intent     Intent        `json:"intent"`
	Entity     string        `json:"entity,omitempty"`
	Quantity   int           `json:"quantity,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Items      []CommandItem `json:"items,omitempty"`
}

// Classifier maps a transcript plus the currently available menu items to a
// best-guess command. A nil command with a nil error means no actionable
// intent was found; implementations never surface transport or parse
// failures to the caller.
type Classifier interface {
	Classify(ctx context.Context, transcript string, available []models.MenuItem) (*VoiceCommand, error)
}
