package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mealpoint/kiosk-api/internal/service"
)

// transcriptTimeout bounds one classify-and-execute round trip.
const transcriptTimeout = 30 * time.Second

// VoiceHandler exposes the voice pipeline over REST for clients that do not
// hold a websocket session (integration tests, curl, fallback UIs).
type VoiceHandler struct {
	Resolver *service.VoiceResolver
	Cart     *service.CartService
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(resolver *service.VoiceResolver, cartService *service.CartService) *VoiceHandler {
	return &VoiceHandler{Resolver: resolver, Cart: cartService}
}

// StartVoice activates voice mode and returns the greeting.
func (h *VoiceHandler) StartVoice(c *gin.Context) {
	response := h.Resolver.Start()
	c.JSON(http.StatusOK, gin.H{"response": response})
}

// StopVoice deactivates voice mode.
func (h *VoiceHandler) StopVoice(c *gin.Context) {
	h.Resolver.Stop()
	c.JSON(http.StatusOK, gin.H{"state": h.Resolver.State()})
}

// HandleTranscript runs one recognized utterance through the resolver.
func (h *VoiceHandler) HandleTranscript(c *gin.Context) {
	var request struct {
		Transcript string `json:"transcript" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transcript is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), transcriptTimeout)
	defer cancel()

	response := h.Resolver.HandleTranscript(ctx, request.Transcript)
	if response == nil {
		// Duplicate, out-of-session, or otherwise non-actionable utterance.
		c.JSON(http.StatusOK, gin.H{"state": h.Resolver.State()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": response,
		"cart":     gin.H{"lines": h.Cart.Lines(), "total": h.Cart.Total()},
	})
}

// GetVoiceState reports the resolver's current state.
func (h *VoiceHandler) GetVoiceState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.Resolver.State()})
}
