package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/andreypavlenko/jobscout/docs" // swagger docs

	"github.com/andreypavlenko/jobscout/internal/config"
	"github.com/andreypavlenko/jobscout/internal/platform/auth"
	httpPlatform "github.com/andreypavlenko/jobscout/internal/platform/http"
	"github.com/andreypavlenko/jobscout/internal/platform/logger"
	"github.com/andreypavlenko/jobscout/internal/platform/postgres"
	"github.com/andreypavlenko/jobscout/internal/platform/redis"

	authHandler "github.com/andreypavlenko/jobscout/modules/auth/handler"
	authRepo "github.com/andreypavlenko/jobscout/modules/auth/repository"
	authService "github.com/andreypavlenko/jobscout/modules/auth/service"
	userRepo "github.com/andreypavlenko/jobscout/modules/users/repository"

	analyticsHandler "github.com/andreypavlenko/jobscout/modules/analytics/handler"
	analyticsService "github.com/andreypavlenko/jobscout/modules/analytics/service"

	eventsRepo "github.com/andreypavlenko/jobscout/modules/events/repository"

	companyHandler "github.com/andreypavlenko/jobscout/modules/companies/handler"
	companyRepo "github.com/andreypavlenko/jobscout/modules/companies/repository"
	companyService "github.com/andreypavlenko/jobscout/modules/companies/service"

	jobHandler "github.com/andreypavlenko/jobscout/modules/jobs/handler"
	jobRepo "github.com/andreypavlenko/jobscout/modules/jobs/repository"
	jobService "github.com/andreypavlenko/jobscout/modules/jobs/service"

	scrapeHandler "github.com/andreypavlenko/jobscout/modules/scrapes/handler"
	scrapeRepo "github.com/andreypavlenko/jobscout/modules/scrapes/repository"
	scrapeService "github.com/andreypavlenko/jobscout/modules/scrapes/service"

	preferenceHandler "github.com/andreypavlenko/jobscout/modules/preferences/handler"
	preferenceRepo "github.com/andreypavlenko/jobscout/modules/preferences/repository"
	preferenceService "github.com/andreypavlenko/jobscout/modules/preferences/service"

	scoringHandler "github.com/andreypavlenko/jobscout/modules/scoring/handler"
	scoringRepo "github.com/andreypavlenko/jobscout/modules/scoring/repository"
	scoringService "github.com/andreypavlenko/jobscout/modules/scoring/service"

	"github.com/gin-gonic/gin"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title JobScout API
// @version 1.0
// @description Job scraping and analysis pipeline API - a modular monolith backend that ingests raw scrapes, cleans and deduplicates them into canonical jobs, schedules tiered LLM analysis, and scores analyzed jobs against learned user preferences.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@jobscout.example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @x-extension-openapi {"example": "value on a json format"}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting JobScout API server",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: cfg.Server.Env}); err != nil {
			logger.Warn("failed to initialize sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()

	// Initialize PostgreSQL
	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()
	logger.Info("Connected to PostgreSQL")

	// Run database migrations (MANDATORY: must run before HTTP server starts)
	migrationsPath := "./migrations"
	if err := postgres.RunMigrations(ctx, cfg.Database, logger, migrationsPath); err != nil {
		logger.Fatal("Failed to run database migrations",
			zap.Error(err),
			zap.String("migrations_path", migrationsPath),
		)
	}

	// Initialize Redis
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(httpPlatform.RequestIDMiddleware())
	router.Use(httpPlatform.LoggerMiddleware(logger))
	router.Use(httpPlatform.CORSMiddleware())

	// Swagger documentation (available in development)
	if cfg.Server.Env != "production" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		logger.Info("Swagger UI available at /swagger/index.html")
	}

	// Health check endpoint
	router.GET("/health", healthCheckHandler(ctx, pgClient, redisClient))
	
	// Ping endpoint
	router.GET("/ping", pingHandler)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Auth middleware
	authMiddleware := auth.AuthMiddleware(jwtManager)

	// Initialize repositories
	userRepository := userRepo.NewUserRepository(pgClient.Pool)
	tokenRepository := authRepo.NewRefreshTokenRepository(pgClient.Pool)
	companyRepository := companyRepo.NewCompanyRepository(pgClient.Pool)
	jobRepository := jobRepo.NewJobRepository(pgClient.Pool)
	rawScrapeRepository := scrapeRepo.NewRawScrapeRepository(pgClient.Pool)
	preferenceRepository := preferenceRepo.NewPreferenceRepository(pgClient.Pool)
	scoreRepository := scoringRepo.NewScoreRepository(pgClient.Pool)
	eventRepository := eventsRepo.NewEventRepository(pgClient.Pool)

	// Initialize services
	authSvc := authService.NewAuthService(
		userRepository,
		tokenRepository,
		jwtManager,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	companySvc := companyService.NewCompanyService(companyRepository)
	jobSvc := jobService.NewJobService(jobRepository)
	ingestorSvc := scrapeService.NewIngestorService(rawScrapeRepository, logger)
	regressionSvc := preferenceService.NewRegressionService(preferenceRepository, eventRepository, cfg.Preference)
	scorerSvc := scoringService.NewScorerService(scoreRepository, jobRepository, preferenceRepository, cfg.Preference)
	analyticsSvc := analyticsService.NewAnalyticsService(eventRepository)

	// Initialize handlers
	authHdl := authHandler.NewAuthHandler(authSvc)
	companyHdl := companyHandler.NewCompanyHandler(companySvc)
	jobHdl := jobHandler.NewJobHandler(jobSvc)
	scrapeHdl := scrapeHandler.NewScrapeHandler(ingestorSvc)
	preferenceHdl := preferenceHandler.NewPreferenceHandler(regressionSvc)
	scoringHdl := scoringHandler.NewScoringHandler(scorerSvc)
	analyticsHdl := analyticsHandler.NewAnalyticsHandler(analyticsSvc)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Register module routes
		authHdl.RegisterRoutes(v1)
		companyHdl.RegisterRoutes(v1, authMiddleware)
		jobHdl.RegisterRoutes(v1, authMiddleware)
		scrapeHdl.RegisterRoutes(v1)
		preferenceHdl.RegisterRoutes(v1, authMiddleware)
		scoringHdl.RegisterRoutes(v1, authMiddleware)
		analyticsHdl.RegisterRoutes(v1, authMiddleware)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// healthCheckHandler godoc
// @Summary Health Check
// @Description Check the health status of the application and its dependencies
// @Tags system
// @Produce json
// @Success 200 {object} http.HealthResponse
// @Router /health [get]
func healthCheckHandler(ctx context.Context, pgClient *postgres.Client, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		services := make(map[string]string)

		// Check PostgreSQL
		if err := pgClient.Health(ctx); err != nil {
			services["postgres"] = "down"
		} else {
			services["postgres"] = "up"
		}

		// Check Redis
		if err := redisClient.Health(ctx); err != nil {
			services["redis"] = "down"
		} else {
			services["redis"] = "up"
		}

		httpPlatform.RespondWithHealth(c, services)
	}
}

// pingHandler godoc
// @Summary Ping
// @Description Simple ping endpoint to check if the API is responding
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
