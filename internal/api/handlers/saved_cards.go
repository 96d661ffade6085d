package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Conceptual-Machines/soundcard-api/internal/api/middleware"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/Conceptual-Machines/soundcard-api/internal/services"
	"github.com/gin-gonic/gin"
)

type SavedCardHandler struct {
	store *services.CardStore
}

func NewSavedCardHandler(store *services.CardStore) *SavedCardHandler {
	return &SavedCardHandler{store: store}
}

type SaveCardRequest struct {
	CardType string         `json:"cardType" binding:"required"`
	Card     map[string]any `json:"card" binding:"required"`
}

func (h *SavedCardHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromGateway(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
		return
	}

	cards, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		log.Printf("❌ SAVED CARDS: list failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list saved cards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cards": cards,
		"count": len(cards),
	})
}

func (h *SavedCardHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromGateway(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
		return
	}

	card, err := h.store.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, services.ErrCardNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errCardNotFound})
		return
	}
	if err != nil {
		log.Printf("❌ SAVED CARDS: get failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load saved card"})
		return
	}

	c.JSON(http.StatusOK, card)
}

func (h *SavedCardHandler) Save(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromGateway(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
		return
	}

	var req SaveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cardType := models.NormalizeCardType(req.CardType)
	if cardType != models.CardTypeSingleKeys && cardType != models.CardTypeChords {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card type", "details": req.CardType})
		return
	}
	pattern := cardType.PatternField()
	if items, isArray := req.Card[pattern].([]any); !isArray || len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid card",
			"details": pattern + " should be a non-empty array",
		})
		return
	}

	saved, err := h.store.Save(c.Request.Context(), userID, cardType, req.Card)
	if err != nil {
		log.Printf("❌ SAVED CARDS: save failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save card"})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

func (h *SavedCardHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromGateway(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
		return
	}

	err := h.store.Delete(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, services.ErrCardNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errCardNotFound})
		return
	}
	if err != nil {
		log.Printf("❌ SAVED CARDS: delete failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete card"})
		return
	}

	c.Status(http.StatusNoContent)
}
