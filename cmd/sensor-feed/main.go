package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/sensor-feed/internal/api/http"
	"github.com/i474232898/sensor-feed/internal/config"
	"github.com/i474232898/sensor-feed/internal/logger"
	"github.com/i474232898/sensor-feed/internal/scheduler"
	"github.com/i474232898/sensor-feed/internal/sensor"
	"github.com/i474232898/sensor-feed/internal/sensor/sources"
	"github.com/i474232898/sensor-feed/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	mainLog := logger.Get("main")

	backoff := sources.DefaultBackoff
	backoff.MaxRetries = cfg.SourceMaxRetries
	source := sources.NewFileSource(sources.FileConfig{
		Path:    cfg.DataFile,
		Sheet:   cfg.DataSheet,
		Header:  cfg.DataHeader,
		Backoff: backoff,
	})

	normalizer := sensor.NewNormalizer(cfg.ReferenceZone, sensor.WithSeed(cfg.SyntheticSeed))

	// Dataset cache; a failed ingestion serves an empty dataset.
	cache := store.NewDatasetCache(source, normalizer,
		store.WithCaching(cfg.CacheEnabled),
		store.WithLoadTimeout(cfg.LoadTimeout),
		store.WithLogger(logger.Get("dataset")),
	)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.LoadTimeout)
	ds := cache.Load(loadCtx)
	cancelLoad()
	mainLog.Info().
		Str("source", source.Name()).
		Stringer("layout", ds.Layout).
		Int("records", ds.Len()).
		Str("zone", cfg.ReferenceZone.String()).
		Msg("initial dataset ready")

	service := sensor.NewService(cache)

	// Scheduler that periodically re-ingests the data file.
	sched := scheduler.New(cache, cfg.ReloadInterval, cfg.LoadTimeout, logger.Get("scheduler"))
	if err := sched.Start(); err != nil {
		mainLog.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sensor-feed",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.LoadTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
	}))

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sensor-feed",
			"records": service.Dataset().Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, cache)

	go func() {
		mainLog.Info().Str("port", cfg.Port).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			mainLog.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("error during shutdown")
	}
}
