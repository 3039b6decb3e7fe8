package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spsports/sps-backend/config"
	"github.com/spsports/sps-backend/internal/app/controller"
	"github.com/spsports/sps-backend/internal/app/model"
	"github.com/spsports/sps-backend/internal/app/repository"
	"github.com/spsports/sps-backend/internal/app/service"
	"github.com/spsports/sps-backend/internal/db"
	"github.com/spsports/sps-backend/internal/middleware"
	"github.com/spsports/sps-backend/internal/ordernumber"
	"github.com/spsports/sps-backend/internal/router"
	"github.com/spsports/sps-backend/internal/scheduler"
	"github.com/spsports/sps-backend/internal/storage"
	"github.com/spsports/sps-backend/internal/websocket"
	"github.com/spsports/sps-backend/pkg/logger"
	"github.com/spsports/sps-backend/pkg/redis"
	"github.com/spsports/sps-backend/pkg/sizing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logger.Initialize(logger.ConfigFromEnvironment(cfg.Server.Environment, os.Getenv("LOG_LEVEL")))

	logger.Info("Starting SPS Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed bootstrap admin (optional)
	if err := db.Seed(&cfg.Auth); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	counterRepo := repository.NewOrderCounterRepository(db.GetDB())

	// Redis backs the order sequence and token revocation when configured
	var sequencer ordernumber.Sequencer = counterRepo
	var revoker service.TokenRevoker
	var revocations middleware.RevocationChecker
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer client.Close()

		blacklist := redis.NewTokenBlacklist(client)
		sequencer = ordernumber.NewRedisSequencer(client)
		revoker = blacklist
		revocations = blacklist
	} else {
		logger.Warn("Redis not configured, using database order sequence without token revocation")
	}

	// Object storage is optional in development
	var uploader storage.Uploader
	var presigner controller.Presigner
	if cfg.S3.Bucket != "" {
		s3Storage := storage.NewS3Storage(&cfg.S3)
		uploader = s3Storage
		presigner = s3Storage
	} else {
		logger.Warn("S3 bucket not configured, uploads disabled")
	}

	// Live tracking hub
	hub := websocket.NewHub(cfg.CORS.AllowedOrigins)
	go hub.Run()
	defer hub.Stop()

	defaultRole := model.UserRole(cfg.Auth.DefaultRole)
	numbers := ordernumber.NewGenerator(sequencer, cfg.Orders.Location())

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry, defaultRole, revoker)
	productService := service.NewProductService(productRepo, sizing.DefaultTable(), uploader)
	orderService := service.NewOrderService(orderRepo, numbers, uploader, hub)

	// Initialize controllers
	authController := controller.NewAuthController(authService, cfg.Cookie)
	productController := controller.NewProductController(productService)
	orderController := controller.NewOrderController(orderService, hub)
	uploadController := controller.NewUploadController(presigner)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.Cookie.Name, revocations)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst)
	defer rateLimiter.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		orderController,
		uploadController,
		authMiddleware,
		rateLimiter,
		cfg,
	)
	engine := r.Setup()

	// Nightly pruning of old order counters
	counterScheduler := scheduler.NewOrderCounterScheduler(counterRepo, cfg.Orders.Location(), cfg.Orders.CounterRetentionDays)
	if err := counterScheduler.Start(); err != nil {
		logger.Warn("Order counter scheduler not started", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer counterScheduler.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
