package models

import "time"

// CartLine is a single cart entry. It snapshots the menu item at add time;
// later catalog edits do not rewrite lines already in the cart.
type CartLine struct {
	Item                MenuItem `json:"item"`
	Quantity            int      `json:"quantity"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`
}

// Subtotal returns price times quantity for the line.
func (l CartLine) Subtotal() int {
	return l.Item.Price * l.Quantity
}

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

// Order statuses, in their forward-only progression order.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
)

// Next returns the status following s, or s itself when the order is
// already completed.
func (s OrderStatus) Next() OrderStatus {
	switch s {
	case OrderStatusPending:
		return OrderStatusPreparing
	case OrderStatusPreparing:
		return OrderStatusReady
	case OrderStatusReady:
		return OrderStatusCompleted
	default:
		return s
	}
}

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

// Supported payment methods. Payment itself is simulated.
const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodCash    PaymentMethod = "cash"
	PaymentMethodDigital PaymentMethod = "digital"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodDigital:
		return true
	}
	return false
}

// Order is the cart snapshot taken at checkout.
type Order struct {
	ID            string        `json:"id"`
	Lines         []CartLine    `json:"lines"`
	TotalAmount   int           `json:"total_amount"`
	CreatedAt     time.Time     `json:"created_at"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}
