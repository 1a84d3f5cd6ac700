package service

import (
	"errors"
	"testing"

	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/testutil"
)

func TestCartService_AddItemMergesQuantities(t *testing.T) {
	cart := NewCartService()
	burger := testutil.TestMenuItem(1, "치킨버거", 5500)

	cart.AddItem(burger, 1, "")
	cart.AddItem(burger, 2, "")

	lines := cart.Lines()
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Errorf("quantity = %d, want 3", lines[0].Quantity)
	}
}

func TestCartService_AddItemSeparateLines(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "치킨버거", 5500), 1, "")
	cart.AddItem(testutil.TestMenuItem(2, "콜라", 2000), 1, "")

	if len(cart.Lines()) != 2 {
		t.Errorf("len(lines) = %d, want 2", len(cart.Lines()))
	}
}

func TestCartService_AddItemNonPositiveQuantityRemoves(t *testing.T) {
	cart := NewCartService()
	burger := testutil.TestMenuItem(1, "치킨버거", 5500)

	cart.AddItem(burger, 2, "")
	cart.AddItem(burger, -1, "")

	if len(cart.Lines()) != 0 {
		t.Errorf("len(lines) = %d, want 0 after non-positive add", len(cart.Lines()))
	}
}

func TestCartService_UpdateQuantityZeroRemoves(t *testing.T) {
	cart := NewCartService()
	burger := testutil.TestMenuItem(1, "치킨버거", 5500)

	cart.AddItem(burger, 2, "")
	cart.UpdateQuantity(1, 0)

	if len(cart.Lines()) != 0 {
		t.Errorf("len(lines) = %d, want 0 after quantity 0", len(cart.Lines()))
	}
}

func TestCartService_UpdateQuantitySets(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "치킨버거", 5500), 2, "")
	cart.UpdateQuantity(1, 5)

	if got := cart.Lines()[0].Quantity; got != 5 {
		t.Errorf("quantity = %d, want 5", got)
	}
}

func TestCartService_Total(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "감자튀김", 2500), 2, "")

	if got := cart.Total(); got != 5000 {
		t.Errorf("Total() = %d, want 5000", got)
	}
}

func TestCartService_TotalMixedLines(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "치킨버거", 5500), 1, "")
	cart.AddItem(testutil.TestMenuItem(2, "콜라", 2000), 2, "")

	if got := cart.Total(); got != 9500 {
		t.Errorf("Total() = %d, want 9500", got)
	}
}

func TestCartService_CreateOrderEmptyCart(t *testing.T) {
	cart := NewCartService()

	order, err := cart.CreateOrder(models.PaymentMethodCard)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
	if order != nil {
		t.Errorf("order = %+v, want nil", order)
	}
	if cart.CurrentOrder() != nil {
		t.Error("empty-cart checkout must not set a current order")
	}
}

func TestCartService_CreateOrderSnapshotsAndClears(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "치킨버거", 5500), 2, "")

	order, err := cart.CreateOrder(models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.TotalAmount != 11000 {
		t.Errorf("total = %d, want 11000", order.TotalAmount)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.ID == "" {
		t.Error("order ID must be set")
	}
	if len(cart.Lines()) != 0 {
		t.Error("cart must be empty after checkout")
	}
}

func TestCartService_OrderLifecycle(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "콜라", 2000), 1, "")
	if _, err := cart.CreateOrder(models.PaymentMethodCash); err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	status, err := cart.AdvanceOrder()
	if err != nil {
		t.Fatalf("AdvanceOrder error: %v", err)
	}
	if status != models.OrderStatusPreparing {
		t.Errorf("status = %s, want preparing", status)
	}

	if err := cart.CompleteOrder(); err != nil {
		t.Fatalf("CompleteOrder error: %v", err)
	}
	if got := cart.CurrentOrder().Status; got != models.OrderStatusCompleted {
		t.Errorf("status = %s, want completed", got)
	}

	cart.ClearOrder()
	if cart.CurrentOrder() != nil {
		t.Error("CurrentOrder must be nil after ClearOrder")
	}
}

func TestCartService_OrderOpsWithoutOrder(t *testing.T) {
	cart := NewCartService()
	if _, err := cart.AdvanceOrder(); !errors.Is(err, ErrNoOrder) {
		t.Errorf("AdvanceOrder err = %v, want ErrNoOrder", err)
	}
	if err := cart.CompleteOrder(); !errors.Is(err, ErrNoOrder) {
		t.Errorf("CompleteOrder err = %v, want ErrNoOrder", err)
	}
}

func TestCartService_CurrentOrderReturnsCopy(t *testing.T) {
	cart := NewCartService()
	cart.AddItem(testutil.TestMenuItem(1, "콜라", 2000), 1, "")
	if _, err := cart.CreateOrder(models.PaymentMethodCard); err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	first := cart.CurrentOrder()
	first.Status = models.OrderStatusReady

	if got := cart.CurrentOrder().Status; got != models.OrderStatusPending {
		t.Errorf("mutating the returned order leaked into state: status = %s", got)
	}
}
