package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mealpoint/kiosk-api/internal/metrics"
	"github.com/mealpoint/kiosk-api/internal/models"
)

// ErrEmptyCart is returned by CreateOrder when the cart holds no lines.
var ErrEmptyCart = errors.New("cart is empty")

// ErrNoOrder is returned when an order operation runs without an in-flight order.
var ErrNoOrder = errors.New("no current order")

// CartService holds the kiosk's cart and the in-flight order. One kiosk
// serves one customer at a time, so a single mutex is the whole concurrency
// story; the resolver is the only writer during voice mode.
type CartService struct {
	mu    sync.Mutex
	lines []models.CartLine
	order *models.Order
}

// NewCartService creates an empty CartService.
func NewCartService() *CartService {
	return &CartService{}
}

// AddItem merges quantity into an existing line for the same menu item or
// appends a new line. A non-positive quantity is normalized to a removal.
func (s *CartService) AddItem(item models.MenuItem, quantity int, instructions string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(item.ID)
		return
	}

	for i := range s.lines {
		if s.lines[i].Item.ID == item.ID {
			s.lines[i].Quantity += quantity
			if instructions != "" {
				s.lines[i].SpecialInstructions = instructions
			}
			return
		}
	}

	s.lines = append(s.lines, models.CartLine{
		Item:                item,
		Quantity:            quantity,
		SpecialInstructions: instructions,
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(itemID uint, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(itemID)
		return
	}

	for i := range s.lines {
		if s.lines[i].Item.ID == itemID {
			s.lines[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem removes the line referencing the given menu item id.
func (s *CartService) RemoveItem(itemID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(itemID)
}

func (s *CartService) removeLocked(itemID uint) {
	for i := range s.lines {
		if s.lines[i].Item.ID == itemID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (s *CartService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Lines returns a copy of the current cart lines.
func (s *CartService) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total returns the sum of line subtotals.
func (s *CartService) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalOf(s.lines)
}

func totalOf(lines []models.CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// CreateOrder atomically snapshots the cart into a new pending order and
// clears the cart. An empty cart never creates an order.
func (s *CartService) CreateOrder(method models.PaymentMethod) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := make([]models.CartLine, len(s.lines))
	copy(snapshot, s.lines)

	order := &models.Order{
		ID:            uuid.New().String(),
		Lines:         snapshot,
		TotalAmount:   totalOf(snapshot),
		CreatedAt:     time.Now(),
		Status:        models.OrderStatusPending,
		PaymentMethod: method,
	}
	s.order = order
	s.lines = nil

	metrics.OrdersCreatedTotal.Inc()
	metrics.OrderAmount.Observe(float64(order.TotalAmount))

	orderCopy := *order
	return &orderCopy, nil
}

// CurrentOrder returns a copy of the in-flight order, or nil.
func (s *CartService) CurrentOrder() *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return nil
	}
	orderCopy := *s.order
	return &orderCopy
}

// AdvanceOrder moves the in-flight order one step forward in its linear
// status progression and returns the new status.
func (s *CartService) AdvanceOrder() (models.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return "", ErrNoOrder
	}
	s.order.Status = s.order.Status.Next()
	return s.order.Status, nil
}

// CompleteOrder jumps the in-flight order straight to completed. The kiosk
// itself only drives pending and completed; the in-between states belong to
// the kitchen.
func (s *CartService) CompleteOrder() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return ErrNoOrder
	}
	s.order.Status = models.OrderStatusCompleted
	return nil
}

// ClearOrder drops the in-flight order reference. Called whenever the
// payment flow closes, successful or not, to free the slot for the next
// customer.
func (s *CartService) ClearOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
}
