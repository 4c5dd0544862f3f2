package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-reports/internal/api/http"
	"github.com/i474232898/weather-reports/internal/common"
	"github.com/i474232898/weather-reports/internal/config"
	"github.com/i474232898/weather-reports/internal/scheduler"
	"github.com/i474232898/weather-reports/internal/store"
	"github.com/i474232898/weather-reports/internal/weather"
	"github.com/i474232898/weather-reports/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := common.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// Per-provider outcome history with configured retention.
	outcomes := store.NewMemoryStore(cfg.OutcomeMaxHistory, cfg.OutcomeMaxAge)

	base := providers.ClientConfig{
		Timeout:            cfg.HTTPTimeout,
		BreakerFailures:    uint32(cfg.BreakerFailures),
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		Logger:             zl,
	}

	openWeatherCfg := base
	openWeatherCfg.BaseURL = cfg.OpenWeatherBaseURL
	openWeatherCfg.APIKey = cfg.OpenWeatherAPIKey

	weatherbitCfg := base
	weatherbitCfg.BaseURL = cfg.WeatherbitBaseURL
	weatherbitCfg.APIKey = cfg.WeatherbitAPIKey

	provs := []weather.Provider{
		providers.NewOpenWeatherProvider(openWeatherCfg),
		providers.NewWeatherbitProvider(weatherbitCfg),
	}

	// Core service fanning out to providers.
	service := weather.NewService(provs, outcomes, zl)

	// Background probe keeping provider outcomes fresh.
	sched := scheduler.New(cfg.ProbeCities, cfg.ProbeInterval, service, zl)
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-reports",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Provider calls are awaited to completion, so leave room for two
		// sequential OpenWeather requests.
		WriteTimeout: 2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "weather-reports",
			"providers": service.Providers(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, outcomes)

	go func() {
		zl.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}
