package ai

import (
	"context"
	"testing"

	"github.com/mealpoint/kiosk-api/internal/models"
	"gorm.io/gorm"
)

func testMenu() []models.MenuItem {
	return []models.MenuItem{
		{Model: gorm.Model{ID: 1}, Name: "치킨버거", NameEn: "Chicken Burger", Price: 5500, CategoryID: 1, Available: true},
		{Model: gorm.Model{ID: 2}, Name: "비프버거", NameEn: "Beef Burger", Price: 6000, CategoryID: 1, Available: true},
		{Model: gorm.Model{ID: 3}, Name: "감자튀김", NameEn: "French Fries", Price: 2500, CategoryID: 2, Available: true},
		{Model: gorm.Model{ID: 4}, Name: "콜라", NameEn: "Cola", Price: 2000, CategoryID: 3, Available: true},
	}
}

func TestKeywordClassifier_AddItem(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "치킨버거 추가해줘", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil {
		t.Fatal("Classify returned nil command")
	}
	if cmd.Intent != IntentAddItem {
		t.Errorf("intent = %s, want %s", cmd.Intent, IntentAddItem)
	}
	if cmd.Entity != "치킨버거" {
		t.Errorf("entity = %s, want 치킨버거", cmd.Entity)
	}
	if cmd.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", cmd.Quantity)
	}
}

func TestKeywordClassifier_AddItemWithDigitQuantity(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "콜라 2개 주문", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil {
		t.Fatal("Classify returned nil command")
	}
	if cmd.Entity != "콜라" {
		t.Errorf("entity = %s, want 콜라", cmd.Entity)
	}
	if cmd.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", cmd.Quantity)
	}
}

func TestKeywordClassifier_LongerNameWins(t *testing.T) {
	// "치킨버거" contains no shorter menu name here, but longest-first
	// ordering must hold when names overlap.
	menu := append(testMenu(), models.MenuItem{Model: gorm.Model{ID: 5}, Name: "버거", Price: 4000, CategoryID: 1, Available: true})
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "치킨버거 하나 넣어줘", menu)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil {
		t.Fatal("Classify returned nil command")
	}
	if cmd.Entity != "치킨버거" {
		t.Errorf("entity = %s, want 치킨버거", cmd.Entity)
	}
}

func TestKeywordClassifier_RemoveItem(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "감자튀김 빼줘", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil {
		t.Fatal("Classify returned nil command")
	}
	if cmd.Intent != IntentRemoveItem {
		t.Errorf("intent = %s, want %s", cmd.Intent, IntentRemoveItem)
	}
	if cmd.Entity != "감자튀김" {
		t.Errorf("entity = %s, want 감자튀김", cmd.Entity)
	}
}

func TestKeywordClassifier_ShowMenu(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "메뉴 좀 보여줘", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil || cmd.Intent != IntentShowMenu {
		t.Fatalf("got %+v, want show_menu intent", cmd)
	}
}

func TestKeywordClassifier_ShowMenuRequiresMenuWord(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "보여줘", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd != nil {
		t.Errorf("got %+v, want nil for bare 보여줘", cmd)
	}
}

func TestKeywordClassifier_Checkout(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "결제할게요", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil || cmd.Intent != IntentCheckout {
		t.Fatalf("got %+v, want checkout intent", cmd)
	}
}

func TestKeywordClassifier_CheckoutViaOrderComplete(t *testing.T) {
	// "주문완료" carries the add trigger "주문" but names no menu item, so it
	// must fall through to checkout.
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "주문완료", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil || cmd.Intent != IntentCheckout {
		t.Fatalf("got %+v, want checkout intent", cmd)
	}
}

func TestKeywordClassifier_Help(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "어떻게 주문해요", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd == nil {
		t.Fatal("Classify returned nil command")
	}
	// 주문 triggers the add path first, but without a menu name the help
	// trigger 어떻게 decides.
	if cmd.Intent != IntentHelp {
		t.Errorf("intent = %s, want %s", cmd.Intent, IntentHelp)
	}
}

func TestKeywordClassifier_NoTrigger(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "오늘 날씨가 좋네요", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd != nil {
		t.Errorf("got %+v, want nil for unrelated speech", cmd)
	}
}

func TestKeywordClassifier_EmptyTranscript(t *testing.T) {
	k := NewKeywordClassifier()
	cmd, err := k.Classify(context.Background(), "   ", testMenu())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if cmd != nil {
		t.Errorf("got %+v, want nil for blank transcript", cmd)
	}
}

func TestExtractQuantity_Digits(t *testing.T) {
	cases := map[string]int{
		"콜라 2개":    2,
		"커피 3잔 주세요": 3,
		"10번":      10,
		"콜라 주세요":   1,
	}
	for transcript, want := range cases {
		if got := ExtractQuantity(transcript); got != want {
			t.Errorf("ExtractQuantity(%q) = %d, want %d", transcript, got, want)
		}
	}
}

func TestExtractQuantity_NumberWords(t *testing.T) {
	cases := map[string]int{
		"콜라 한개":    1,
		"콜라 하나개":   1,
		"버거 두개 줘":  2,
		"감자튀김 세개":  3,
		"음료 네잔":    4,
		"콜라 다섯개":   5,
		"버거 여덟개":   8,
		"음료수 열잔 줘": 10,
	}
	for transcript, want := range cases {
		if got := ExtractQuantity(transcript); got != want {
			t.Errorf("ExtractQuantity(%q) = %d, want %d", transcript, got, want)
		}
	}
}

func TestExtractQuantity_CounterWordRequired(t *testing.T) {
	if got := ExtractQuantity("콜라 2"); got != 1 {
		t.Errorf("ExtractQuantity('콜라 2') = %d, want default 1", got)
	}
}
