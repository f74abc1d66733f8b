package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/skillforge-hq/skillforge-backend/internal/handlers"
	"github.com/skillforge-hq/skillforge-backend/internal/middleware"
	"github.com/skillforge-hq/skillforge-backend/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware    *middleware.AuthMiddleware
	GenerationHandler *handlers.GenerationHandler
	QueueHandler      *handlers.QueueHandler
	EventsHandler     *handlers.EventsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("skillforge-backend"))

	origins := strings.Split(utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Generation
		api.POST("/courses/:id/generate-content", cfg.GenerationHandler.GenerateContent)
		api.POST("/courses/:id/regenerate-content", cfg.GenerationHandler.RegenerateContent)
		api.GET("/courses/:id/generation", cfg.GenerationHandler.GetLatestForCourse)
		api.GET("/generation-jobs/:id", cfg.GenerationHandler.GetJobByID)
		// Queue
		api.POST("/queue/process", cfg.QueueHandler.ProcessQueue)
		api.POST("/enrollments/:id/retry", cfg.QueueHandler.RetryEnrollment)
		// Events
		api.GET("/events/stream", cfg.EventsHandler.Stream)
	}

	return router
}
