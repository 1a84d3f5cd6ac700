package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mealpoint/kiosk-api/internal/service"
)

// CartHandler handles touch-path cart requests. The voice path mutates the
// same CartService through the resolver; both feed the same order.
type CartHandler struct {
	Catalog *service.CatalogService
	Cart    *service.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(catalogService *service.CatalogService, cartService *service.CartService) *CartHandler {
	return &CartHandler{Catalog: catalogService, Cart: cartService}
}

// GetCart returns the current cart lines and total.
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"lines": h.Cart.Lines(), "total": h.Cart.Total()})
}

// AddItem adds a menu item to the cart by id.
func (h *CartHandler) AddItem(c *gin.Context) {
	var request struct {
		MenuItemID          uint   `json:"menu_item_id" binding:"required"`
		Quantity            int    `json:"quantity"`
		SpecialInstructions string `json:"special_instructions"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "menu_item_id is required"})
		return
	}

	item, err := h.Catalog.GetMenuItem(request.MenuItemID)
	if err != nil {
		respondRepoError(c, err, "Failed to load menu item")
		return
	}
	if !item.Available {
		c.JSON(http.StatusConflict, gin.H{"error": "Menu item is sold out"})
		return
	}

	quantity := request.Quantity
	if quantity == 0 {
		quantity = 1
	}
	h.Cart.AddItem(*item, quantity, service.SanitizeInstructions(request.SpecialInstructions))
	c.JSON(http.StatusOK, gin.H{"lines": h.Cart.Lines(), "total": h.Cart.Total()})
}

// UpdateQuantity sets a cart line's quantity; zero or less removes it.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	itemID, err := parseUintParam(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	var request struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity field is required"})
		return
	}

	h.Cart.UpdateQuantity(itemID, *request.Quantity)
	c.JSON(http.StatusOK, gin.H{"lines": h.Cart.Lines(), "total": h.Cart.Total()})
}

// RemoveItem removes a cart line.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := parseUintParam(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid menu item ID"})
		return
	}

	h.Cart.RemoveItem(itemID)
	c.JSON(http.StatusOK, gin.H{"lines": h.Cart.Lines(), "total": h.Cart.Total()})
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.Cart.Clear()
	c.JSON(http.StatusOK, gin.H{"lines": []struct{}{}, "total": 0})
}
