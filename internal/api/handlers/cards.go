package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Conceptual-Machines/soundcard-api/internal/agents/soundcard"
	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/llm"
	"github.com/Conceptual-Machines/soundcard-api/internal/logger"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

type CardHandler struct {
	generator soundcard.Generator
}

func NewCardHandler(generator soundcard.Generator) *CardHandler {
	return &CardHandler{generator: generator}
}

// Generate runs the card pipeline for the posted GenerationConfig
func (h *CardHandler) Generate(c *gin.Context) {
	var cfg models.GenerationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		log.Printf("❌ SOUND CARD: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
			"stage":   soundcard.StageConfig,
		})
		return
	}

	card, err := h.generator.Generate(c.Request.Context(), &cfg)
	if err != nil {
		status, stage := statusForGenerationError(err)
		fields := logger.WithContext(c)
		fields["stage"] = string(stage)
		fields["status_code"] = status
		switch status {
		case http.StatusBadGateway, http.StatusUnprocessableEntity:
			// the collaborator misbehaved; keep a record without raising an exception
			fields["details"] = err.Error()
			logger.LogToSentry(sentry.LevelWarning, "Collaborator reply rejected", fields)
			log.Printf("❌ SOUND CARD: reply rejected (status %d, stage %s): %v", status, stage, err)
		case http.StatusBadRequest:
			logger.Warn("Card generation rejected config", fields)
		default:
			logger.Error("Card generation failed", err, fields)
		}
		c.JSON(status, gin.H{
			"error":   generationErrorTitle(status),
			"details": err.Error(),
			"stage":   stage,
		})
		return
	}

	log.Printf("✅ SOUND CARD: generated %q (%s)", card.Name, card.Type)
	c.JSON(http.StatusOK, card)
}

// statusForGenerationError maps a pipeline failure onto an HTTP status
func statusForGenerationError(err error) (int, soundcard.Stage) {
	var stage soundcard.Stage
	var genErr *soundcard.GenerationError
	if errors.As(err, &genErr) {
		stage = genErr.Stage
	}

	var cfgErr *config.ConfigurationError
	var invalid *soundcard.InvalidConfigError
	var transportErr *llm.TransportError
	var parseErr *soundcard.ParseError
	var validationErr *soundcard.ValidationError

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, stage
	case errors.As(err, &invalid), stage == soundcard.StageConfig:
		return http.StatusBadRequest, stage
	case errors.As(err, &validationErr), stage == soundcard.StageValidate:
		return http.StatusUnprocessableEntity, stage
	case errors.As(err, &transportErr), errors.As(err, &parseErr), errors.Is(err, llm.ErrEmptyReply):
		return http.StatusBadGateway, stage
	case stage == soundcard.StageExtract:
		return http.StatusBadGateway, stage
	default:
		return http.StatusInternalServerError, stage
	}
}

func generationErrorTitle(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid generation config"
	case http.StatusUnprocessableEntity:
		return "Generated card failed validation"
	case http.StatusBadGateway:
		return "Language model did not return a usable card"
	default:
		return "Card generation failed"
	}
}
