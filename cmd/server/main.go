// cmd/server/main.go - Clean Street API server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clean-street/internal/config"
	"clean-street/internal/database"
	"clean-street/internal/handlers"
	"clean-street/internal/logger"
	"clean-street/internal/middleware"
	"clean-street/internal/router"
	"clean-street/internal/services"
	"clean-street/internal/store"
	"clean-street/internal/upload"
	"clean-street/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	appVersion = "1.0.0"
	gitCommit  = "unknown"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSecret == "your-secret-key" {
			log.Fatal("JWT_SECRET must be set in production")
		}
	}

	log.WithFields(logrus.Fields{
		"version": appVersion,
		"commit":  gitCommit,
		"env":     cfg.Env,
	}).Info("Starting Clean Street API")

	db, err := database.NewMongoDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Error disconnecting from MongoDB")
		}
	}()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		log.WithError(err).Warn("Failed to create some indexes")
	}
	cancel()

	if err := handlers.RegisterValidators(); err != nil {
		log.WithError(err).Fatal("Failed to register validators")
	}

	uploader, err := upload.New(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure uploads")
	}

	limiter, stopLimiter := setupLimiter(cfg, log)
	defer stopLimiter()

	timeout := cfg.QueryTimeout()
	users := store.NewMongoUserStore(db, timeout)
	complaints := store.NewMongoComplaintStore(db, timeout, cfg.MongoTransactions)
	adminLogs := store.NewMongoAdminLogStore(db, timeout)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAdminSecret, cfg.TokenTTL())

	authService := services.NewAuthService(users, jwtManager, uploader, log, services.AuthOptionsFromConfig(cfg))
	complaintService := services.NewComplaintService(complaints, users, uploader, log)
	adminService := services.NewAdminService(users, complaints, adminLogs, complaintService, log)

	engine := router.Setup(router.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.MaxUploadSize, log),
		Complaint: handlers.NewComplaintHandler(complaintService, cfg.MaxUploadSize, log),
		Admin:     handlers.NewAdminHandler(adminService, log),
		Health:    handlers.NewHealthHandler(db, log),
	}, authService, log, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadSize:  cfg.MaxUploadSize,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        engine,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Server forced to shutdown")
	} else {
		log.Info("Server gracefully stopped")
	}
}

// setupLimiter prefers the shared Redis window so limits hold across
// replicas, and falls back to the in-process limiter.
func setupLimiter(cfg *config.Config, log *logrus.Logger) (middleware.Limiter, func()) {
	if !cfg.RateLimitEnabled {
		return nil, func() {}
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedis(context.Background(), cfg.RedisURL, log)
		if err == nil {
			return middleware.NewRedisLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow), func() {
				if err := client.Close(); err != nil {
					log.WithError(err).Warn("Error closing Redis client")
				}
			}
		}
		log.WithError(err).Warn("Redis unavailable, using in-memory rate limiter")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	return limiter, limiter.Stop
}
