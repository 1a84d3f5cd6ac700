package ai

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mealpoint/kiosk-api/internal/models"
)

// Trigger word sets for the keyword fallback, per intent.
var (
	addTriggers      = []string{"추가", "주문", "넣어"}
	removeTriggers   = []string{"빼", "제거", "삭제"}
	showMenuTriggers = []string{"보여", "알려", "뭐"}
	checkoutTriggers = []string{"결제", "계산", "주문완료", "주문 완료"}
	helpTriggers     = []string{"도움", "help", "어떻게"}
)

// digitQuantityRe matches a digit count followed by a counter word.
var digitQuantityRe = regexp.MustCompile(`(\d+)\s*(?:개|잔|번)`)

// wordQuantityRe matches a spoken number word (1-10) followed by a counter
// word. Longer alternatives come first so 하나 wins over 한.
var wordQuantityRe = regexp.MustCompile(`(하나|다섯|여섯|일곱|여덟|아홉|한|둘|두|셋|세|넷|네|열)\s*(?:개|잔|번)`)

var numberWords = map[string]int{
	"한": 1, "하나": 1,
	"두": 2, "둘": 2,
	"세": 3, "셋": 3,
	"네": 4, "넷": 4,
	"다섯": 5, "여섯": 6, "일곱": 7, "여덟": 8, "아홉": 9, "열": 10,
}

// ExtractQuantity pulls an order quantity out of a transcript. It accepts
// digits or spoken number words (1-10) followed by a counter word (개/잔/번)
// and defaults to 1 when neither form is present.
func ExtractQuantity(transcript string) int {
	if m := digitQuantityRe.FindStringSubmatch(transcript); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if m := wordQuantityRe.FindStringSubmatch(transcript); m != nil {
		if n, ok := numberWords[m[1]]; ok {
			return n
		}
	}
	return 1
}

// KeywordClassifier is the local fallback classifier. It matches a fixed
// vocabulary of trigger words per intent and menu names by substring
// containment, longest menu name first.
type KeywordClassifier struct{}

// NewKeywordClassifier returns a new KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier. It never returns an error; utterances with
// no recognizable trigger yield (nil, nil).
func (k *KeywordClassifier) Classify(_ context.Context, transcript string, available []models.MenuItem) (*VoiceCommand, error) {
	lowerText := strings.ToLower(strings.TrimSpace(transcript))
	if lowerText == "" {
		return nil, nil
	}

	if containsAny(lowerText, addTriggers) {
		if item := matchMenuName(lowerText, available); item != nil {
			return &VoiceCommand{
				Intent:   IntentAddItem,
				Entity:   item.Name,
				Quantity: ExtractQuantity(lowerText),
			}, nil
		}
	}

	if containsAny(lowerText, removeTriggers) {
		if item := matchMenuName(lowerText, available); item != nil {
			return &VoiceCommand{
				Intent: IntentRemoveItem,
				Entity: item.Name,
			}, nil
		}
	}

	if strings.Contains(lowerText, "메뉴") && containsAny(lowerText, showMenuTriggers) {
		return &VoiceCommand{Intent: IntentShowMenu}, nil
	}

	if containsAny(lowerText, checkoutTriggers) {
		return &VoiceCommand{Intent: IntentCheckout}, nil
	}

	if containsAny(lowerText, helpTriggers) {
		return &VoiceCommand{Intent: IntentHelp}, nil
	}

	return nil, nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// matchMenuName finds the available menu item whose name appears in the
// transcript, preferring longer (more specific) names over shorter ones.
func matchMenuName(lowerText string, available []models.MenuItem) *models.MenuItem {
	sorted := make([]models.MenuItem, len(available))
	copy(sorted, available)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Name) > len(sorted[j].Name)
	})

	for i := range sorted {
		name := strings.ToLower(sorted[i].Name)
		nameEn := strings.ToLower(sorted[i].NameEn)
		if name != "" && strings.Contains(lowerText, name) {
			return &sorted[i]
		}
		if nameEn != "" && strings.Contains(lowerText, nameEn) {
			return &sorted[i]
		}
	}
	return nil
}
