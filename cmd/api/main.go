package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/config"
	"jobtrackr/matching-engine/internal/handlers"
	"jobtrackr/matching-engine/internal/logger"
	"jobtrackr/matching-engine/internal/repositories"
	"jobtrackr/matching-engine/internal/scheduler"
	"jobtrackr/matching-engine/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Initialize repositories
	candidateRepo := repositories.NewCandidateRepository(db)
	jobRepo := repositories.NewJobRepository(db)
	matchRepo := repositories.NewMatchRepository(db)

	// Initialize Gemini AI
	ctx := context.Background()
	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		zapLogger.Fatal("failed to initialize gemini client", zap.Error(err))
	}

	// Initialize the matching engine
	extractor := services.NewProfileExtractor(geminiService, zapLogger)
	fetcher := services.NewAdzunaFetcher(
		cfg.Adzuna.AppID,
		cfg.Adzuna.AppKey,
		cfg.Adzuna.Country,
		cfg.Matching.RequestTimeout,
		zapLogger,
	)
	catalog := services.NewCatalogQuery(jobRepo, fetcher, zapLogger)
	scorer := services.NewScoringEngine(
		geminiService,
		cfg.Matching.RequestTimeout,
		cfg.Matching.MaxConcurrency,
		zapLogger,
	)
	orchestrator := services.NewMatchOrchestrator(candidateRepo, matchRepo, catalog, scorer, zapLogger)

	// Initialize scheduler
	sched := scheduler.New(
		candidateRepo,
		jobRepo,
		orchestrator,
		cfg.Scheduler.RefreshSpec,
		cfg.Scheduler.CleanupSpec,
		cfg.Scheduler.RefreshLimit,
		zapLogger,
	)
	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			zapLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	// Initialize handlers
	aiHandler := handlers.NewAIHandler(candidateRepo, matchRepo, extractor, orchestrator, zapLogger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "JobTrackr Matching Engine",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	ai := api.Group("/ai")
	ai.Post("/analyze-resume", aiHandler.HandleAnalyzeResume)
	ai.Get("/job-matches", aiHandler.HandleJobMatches)
	ai.Get("/recommendations", aiHandler.HandleRecommendations)
	ai.Post("/recommendations/notified", aiHandler.HandleMarkNotified)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zapLogger.Info("shutting down server")
		if cfg.Scheduler.Enabled {
			sched.Stop()
		}
		if err := app.Shutdown(); err != nil {
			zapLogger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zapLogger.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
