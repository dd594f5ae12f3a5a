package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/outdoor-temperature/internal/api/http"
	"github.com/i474232898/outdoor-temperature/internal/config"
	"github.com/i474232898/outdoor-temperature/internal/metrics"
	"github.com/i474232898/outdoor-temperature/internal/netlink"
	"github.com/i474232898/outdoor-temperature/internal/publish"
	"github.com/i474232898/outdoor-temperature/internal/scheduler"
	"github.com/i474232898/outdoor-temperature/internal/store"
	"github.com/i474232898/outdoor-temperature/internal/weather"
	"github.com/i474232898/outdoor-temperature/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded", "err", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to parse log level", "level", cfg.LogLevel, "err", err)
	}
	log.SetLevel(lvl)
	log.SetReportTimestamp(true)
	baseLogger := log.Default()

	// One client for every poll: 15s connect, 20s overall.
	httpClient := providers.NewHTTPClient(providers.ConnectTimeout, providers.RequestTimeout)
	provider := providers.NewSensorAPIProvider(httpClient, providers.OpenTimeout(cfg.WakeInterval))

	recorder := metrics.New()
	opts := []weather.Option{
		weather.WithLogger(baseLogger.WithPrefix("weather")),
		weather.WithRecorder(recorder),
	}

	if cfg.MQTT.Enable {
		pub := publish.New(cfg.MQTT, baseLogger)
		if err := pub.Start(); err != nil {
			log.Warn("mqtt unavailable; readings will not be published until it connects", "err", err)
		}
		defer pub.Close()
		opts = append(opts, weather.WithPublisher(pub))
	}

	service, err := weather.NewService(
		provider,
		netlink.NewInterfaceChecker(cfg.NetInterface),
		store.NewFileStore(cfg.StateFile),
		store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge),
		weather.Settings{URL: cfg.SensorURL, IntervalHours: cfg.UpdateIntervalHours},
		opts...,
	)
	if err != nil {
		log.Fatal("failed to start weather service", "err", err)
	}

	// Wake cycle that polls when an update is due.
	sched := scheduler.New(cfg.WakeInterval, service, baseLogger)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", "err", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "outdoor-temperature",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Refresh may hold a request for a full poll.
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "outdoor-temperature",
			"stale":   service.State().Stale(),
		})
	})

	httpapi.RegisterRoutes(app, service)
	httpapi.RegisterMetrics(app, recorder)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "err", err)
		}
	}()
	log.Info("listening", "port", cfg.Port, "wake", cfg.WakeInterval, "intervalHours", weather.ClampInterval(cfg.UpdateIntervalHours))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
}
