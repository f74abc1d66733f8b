package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/skillforge-hq/skillforge-backend/internal/clients/redisbus"
	"github.com/skillforge-hq/skillforge-backend/internal/content"
	"github.com/skillforge-hq/skillforge-backend/internal/db"
	"github.com/skillforge-hq/skillforge-backend/internal/handlers"
	"github.com/skillforge-hq/skillforge-backend/internal/llm"
	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/middleware"
	"github.com/skillforge-hq/skillforge-backend/internal/observability"
	"github.com/skillforge-hq/skillforge-backend/internal/repos"
	"github.com/skillforge-hq/skillforge-backend/internal/server"
	"github.com/skillforge-hq/skillforge-backend/internal/services"
	"github.com/skillforge-hq/skillforge-backend/internal/sse"
	"github.com/skillforge-hq/skillforge-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	if shutdown := observability.Init(ctx, log, observability.Config{
		ServiceName: "skillforge-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	}); shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	courseRepo := repos.NewCourseRepo(thePG, log)
	employeeRepo := repos.NewEmployeeRepo(thePG, log)
	mappingRepo := repos.NewEmployeeMappingRepo(thePG, log)
	prefRepo := repos.NewLearningPreferenceRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	jobRepo := repos.NewGenerationJobRepo(thePG, log)
	artifactRepo := repos.NewContentArtifactRepo(thePG, log)
	legacyRepo := repos.NewLegacyContentRepo(thePG, log)

	// SSE + event bus
	sseHub := sse.NewHub(log)
	bus, err := redisbus.New(log)
	if err != nil {
		log.Warn("Redis bus init failed, progress events stay in-process", "error", err)
		bus = nil
	}
	bus.StartForwarder(ctx, sseHub.Broadcast)

	// Services
	log.Info("Setting up Services from main...")
	groqClient, err := llm.NewGroqClient(log)
	if err != nil {
		log.Error("Could not init Groq client", "error", err)
		os.Exit(1)
	}
	chain := content.NewDefaultChain(log, groqClient)
	notifier := services.NewProgressNotifier(log, sseHub, bus)
	tracker := services.NewJobTracker(log, jobRepo, notifier)
	resolver := services.NewPersonalizationResolver(log, employeeRepo, prefRepo)
	runner := services.NewPipelineRunner(log, courseRepo, enrollmentRepo, artifactRepo, tracker, chain)
	coordinator := services.NewRegenerationCoordinator(log, courseRepo, mappingRepo, prefRepo, enrollmentRepo, artifactRepo, legacyRepo, tracker, resolver, runner)
	reconciler := services.NewReconciler(log, enrollmentRepo, artifactRepo)
	queue := services.NewQueueProcessor(log, enrollmentRepo, jobRepo, tracker, resolver, runner, reconciler)
	queue.StartWorker(ctx)
	statusService := services.NewGenerationStatusService(log, jobRepo, mappingRepo)
	authService := services.NewAuthService(log, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)

	// Handlers
	log.Info("Setting up handlers from main...")
	generationHandler := handlers.NewGenerationHandler(log, coordinator, statusService)
	queueHandler := handlers.NewQueueHandler(log, queue, reconciler)
	eventsHandler := handlers.NewEventsHandler(log, sseHub, mappingRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:    authMiddleware,
		GenerationHandler: generationHandler,
		QueueHandler:      queueHandler,
		EventsHandler:     eventsHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
