package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"taste-fit/internal/config"
	apihttp "taste-fit/internal/http"
	"taste-fit/internal/repository"
	"taste-fit/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	profileRepo := repository.NewMemoryProfileRepository()
	responseRepo := repository.NewMemoryResponseRepository()
	eventRepo := repository.NewMemoryEventRepository()
	userRepo := repository.NewMemoryAdminUserRepository()

	authSvc := service.NewAuthService(cfg.JWTSecret, userRepo)
	if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	affectiveSvc := service.NewAffectiveService(logger, profileRepo, responseRepo, eventRepo)
	analyticsSvc := service.NewAnalyticsService(logger, profileRepo, responseRepo, eventRepo)

	handlers := apihttp.NewHandlers(logger, affectiveSvc)
	adminHandler := apihttp.NewAdminHandler(logger, authSvc, analyticsSvc, handlers)
	router := apihttp.NewRouter(logger, authSvc, handlers, adminHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
