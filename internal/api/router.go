package api

import (
	"github.com/Conceptual-Machines/soundcard-api/internal/agents/soundcard"
	"github.com/Conceptual-Machines/soundcard-api/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/soundcard-api/internal/api/middleware"
	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/metrics"
	"github.com/Conceptual-Machines/soundcard-api/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, cfg *config.Config, version string, generator soundcard.Generator, recorder *metrics.Recorder) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(recorder))

	router.Use(apimiddleware.CORS(cfg.CORSAllowedOrigins))

	// Health check
	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, cfg.Provider(), cfg.LLMModel)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Card generation is stateless and needs no user
	cardHandler := handlers.NewCardHandler(generator)
	router.POST("/api/generate-card", cardHandler.Generate)

	v1 := router.Group("/api/v1")
	v1.POST("/cards/generate", cardHandler.Generate)

	// Saved cards belong to the caller
	userAuth := apimiddleware.NoAuth()
	if cfg.IsGatewayMode() {
		userAuth = apimiddleware.GatewayAuth()
	}

	if db != nil {
		savedHandler := handlers.NewSavedCardHandler(services.NewCardStore(db))
		cards := v1.Group("/cards", userAuth)
		{
			cards.GET("", savedHandler.List)
			cards.POST("", savedHandler.Save)
			cards.GET("/:id", savedHandler.Get)
			cards.DELETE("/:id", savedHandler.Delete)
		}
	}

	return router
}
