package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portal-compare/internal/comparison"
	httpadapter "portal-compare/internal/comparison/adapter/http"
	"portal-compare/internal/comparison/config"
	"portal-compare/internal/di"
	"portal-compare/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string `env:"SERVER_HOST" envDefault:"localhost"`
	Port         string `env:"SERVER_PORT" envDefault:"3000"`
	AllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the comparison HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newAccessLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runServe() error {
	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	appLogger := logger.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	appLogger.Info("Application configuration loaded successfully")

	access, err := newAccessLogger(serverCfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to create access logger: %w", err)
	}
	defer func() { _ = access.Sync() }()

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := container.InitializeComparison(cfg, comparison.WithAccessLogger(access)); err != nil {
		return fmt.Errorf("failed to initialize comparison module: %w", err)
	}
	appLogger.Info("Comparison module initialized successfully")

	app := fiber.New(fiber.Config{
		AppName:      "Portal Compare API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: httpadapter.ErrorHandler,
	})

	module := container.GetComparisonModule()
	m := module.GetMiddleware()

	app.Use(recover.New())
	app.Use(m.RequestID(), m.AccessLog(), m.SecurityHeaders())
	app.Use(m.CORS(serverCfg.AllowOrigins))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
			"stats":     module.Stats(),
		})
	})

	module.RegisterRoutes(app)

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			return fmt.Errorf("server startup failed: %w", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
	return nil
}
