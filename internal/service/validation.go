package service

import (
	"fmt"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/asaskevich/govalidator"
	"github.com/mealpoint/kiosk-api/internal/models"
)

// profanityDetector screens free text that ends up on kitchen tickets and
// customer-facing screens.
var profanityDetector = goaway.NewProfanityDetector().
	WithSanitizeLeetSpeak(true).
	WithSanitizeSpecialCharacters(true).
	WithSanitizeAccents(false)

// ValidateCategory validates a category before create or update.
func ValidateCategory(category *models.Category) error {
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	if category.DisplayOrder < 0 {
		return fmt.Errorf("display order cannot be negative")
	}
	for _, token := range category.Synonyms {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("synonym tokens cannot be blank")
		}
	}
	return nil
}

// ValidateMenuItem validates a menu item before create or update.
func ValidateMenuItem(item *models.MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("menu item name is required")
	}
	if item.NameEn != "" && !govalidator.IsPrintableASCII(item.NameEn) {
		return fmt.Errorf("english name must be printable ASCII")
	}
	if item.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if item.CategoryID == 0 {
		return fmt.Errorf("category is required")
	}
	// Absolute URLs must parse; relative asset paths ("/beef.png") pass through.
	if item.ImageURL != "" && !strings.HasPrefix(item.ImageURL, "/") && !govalidator.IsRequestURL(item.ImageURL) {
		return fmt.Errorf("image URL is not a valid URL")
	}
	return nil
}

// SanitizeInstructions censors profanity out of free-text special
// instructions before they reach the cart.
func SanitizeInstructions(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return profanityDetector.Censor(text)
}
