package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-portfolio-backend/config"
	v1 "resume-portfolio-backend/internal/delivery/http/v1"
	"resume-portfolio-backend/internal/repository/postgres"
	"resume-portfolio-backend/internal/usecase"
	"resume-portfolio-backend/pkg/database"
	"resume-portfolio-backend/pkg/logger"
	"resume-portfolio-backend/pkg/redis"

	"github.com/go-playground/validator/v10"
)

// @title           Resume Portfolio Backend API
// @version         1.0
// @description     Candidate search and ATS score tracking backend.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting resume portfolio backend", "port", cfg.Port)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional, rate limiter falls back to in-memory)
	if err := redis.Initialize(redis.Config{
		URL:      cfg.UpstashRedisURL,
		Password: cfg.UpstashRedisPassword,
	}); err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
	}
	defer redis.Close()

	// 5. Setup Repositories
	candidateRepo := postgres.NewCandidateRepository(dbPool)
	atsRepo := postgres.NewATSRepository(dbPool)

	// 6. Setup UseCases
	validate := validator.New()
	candidateUC := usecase.NewCandidateUsecase(candidateRepo, time.Now)
	atsUC := usecase.NewATSUsecase(
		atsRepo,
		validate,
		cfg.ScoreTolerance,
		time.Duration(cfg.ScoreHistoryRetentionDays)*24*time.Hour,
		time.Now,
	)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		CandidateUC: candidateUC,
		ATSUC:       atsUC,
		Config:      cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
