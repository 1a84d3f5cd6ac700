package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/models"
	"github.com/mealpoint/kiosk-api/internal/service"
	"go.uber.org/zap"
)

const (
	// paymentProcessingDelay simulates the card terminal round trip.
	paymentProcessingDelay = 3 * time.Second
	// orderResetCountdown is how long the receipt screen stays up before
	// the kiosk resets for the next customer.
	orderResetCountdown = 5 * time.Second
)

// OrderHandler handles checkout, payment, and order status requests.
// Payment is simulated; no real terminal is attached.
type OrderHandler struct {
	Cart *service.CartService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(cartService *service.CartService) *OrderHandler {
	return &OrderHandler{Cart: cartService}
}

// Checkout snapshots the cart into a new pending order.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var request struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_method is required"})
		return
	}

	method := models.PaymentMethod(request.PaymentMethod)
	if !method.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_method must be card, cash, or digital"})
		return
	}

	order, err := h.Cart.CreateOrder(method)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cart is empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	logger.Get().Info("order created",
		zap.String("order_id", order.ID),
		zap.Int("total_amount", order.TotalAmount),
		zap.String("payment_method", string(order.PaymentMethod)))

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetCurrentOrder returns the in-flight order.
func (h *OrderHandler) GetCurrentOrder(c *gin.Context) {
	order := h.Cart.CurrentOrder()
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Pay runs the simulated payment for the in-flight order: blocks for the
// terminal delay, marks the order completed, and schedules the kiosk reset.
func (h *OrderHandler) Pay(c *gin.Context) {
	order := h.Cart.CurrentOrder()
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current order"})
		return
	}
	if order.Status == models.OrderStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is already paid"})
		return
	}

	select {
	case <-time.After(paymentProcessingDelay):
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Payment cancelled"})
		return
	}

	if err := h.Cart.CompleteOrder(); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current order"})
		return
	}

	logger.Get().Info("payment completed", zap.String("order_id", order.ID))

	orderID := order.ID
	time.AfterFunc(orderResetCountdown, func() {
		current := h.Cart.CurrentOrder()
		if current != nil && current.ID == orderID {
			h.Cart.ClearOrder()
		}
	})

	completed := h.Cart.CurrentOrder()
	c.JSON(http.StatusOK, gin.H{"order": completed, "reset_in_seconds": int(orderResetCountdown.Seconds())})
}

// AdvanceOrder moves the in-flight order one status forward. Admin only;
// this is the kitchen-side progression (pending, preparing, ready, completed).
func (h *OrderHandler) AdvanceOrder(c *gin.Context) {
	status, err := h.Cart.AdvanceOrder()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CloseOrder drops the in-flight order immediately, skipping the countdown.
func (h *OrderHandler) CloseOrder(c *gin.Context) {
	h.Cart.ClearOrder()
	c.JSON(http.StatusOK, gin.H{"message": "Order closed"})
}
