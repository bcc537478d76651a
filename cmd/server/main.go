package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/delivery-service/internal/cache"
	"github.com/SAP-F-2025/delivery-service/internal/config"
	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	"github.com/SAP-F-2025/delivery-service/internal/handlers"
	"github.com/SAP-F-2025/delivery-service/internal/middleware"
	"github.com/SAP-F-2025/delivery-service/internal/observability"
	"github.com/SAP-F-2025/delivery-service/internal/repositories"
	"github.com/SAP-F-2025/delivery-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/delivery-service/internal/services"
	"github.com/SAP-F-2025/delivery-service/internal/utils"
	"github.com/SAP-F-2025/delivery-service/internal/validator"
	"github.com/SAP-F-2025/delivery-service/pkg"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting delivery service", "environment", cfg.Environment)

	db, err := pkg.InitDatabase(cfg, logger)
	if err != nil {
		return err
	}

	var repo repositories.Repository = postgres.NewRepository(db)

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, serving assessments without cache", "error", err)
	} else {
		defer redisClient.Close()
		cached := cache.NewCachedAssessmentRepository(repo.Assessment(),
			cache.NewRedisCache(redisClient, logger), cfg.AssessmentCacheTTL, logger)
		if err := cached.Invalidate(ctx); err != nil {
			logger.Warn("Failed to clear assessment cache", "error", err)
		}
		repo = cache.WithAssessmentCache(repo, cached)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	controller := delivery.NewController(time.Now, cfg.ExpirationGrace)
	deliveryService := services.NewDeliveryService(repo, publisher, controller, validator.New(), logger)
	exportService := services.NewExportService(repo, logger)

	auth := authMiddleware(cfg, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlerLogger := utils.NewSlogLogger(logger)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		utils.LoggerMiddleware(handlerLogger),
		utils.ContextLogger(handlerLogger),
		observability.Middleware(),
	)
	handlers.NewHandlerManager(deliveryService, exportService, handlerLogger).SetupRoutes(router, auth)

	server := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down delivery service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Delivery service stopped successfully")
	return nil
}

func authMiddleware(cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Casdoor.Enabled() {
		if cfg.IsProduction() {
			logger.Error("Casdoor is not configured in production; all API requests will be rejected")
			return middleware.Auth(func(string) (*middleware.Identity, error) {
				return nil, errors.New("identity provider not configured")
			}, logger)
		}
		logger.Warn("Casdoor not configured, trusting X-User-ID headers")
		return middleware.DevAuth()
	}

	casdoorsdk.InitConfig(
		cfg.Casdoor.Endpoint,
		cfg.Casdoor.ClientID,
		cfg.Casdoor.ClientSecret,
		cfg.Casdoor.Certificate,
		cfg.Casdoor.Organization,
		cfg.Casdoor.Application,
	)
	logger.Info("Casdoor token verification enabled", "endpoint", cfg.Casdoor.Endpoint)
	return middleware.Auth(middleware.CasdoorParser(), logger)
}
