/**
 * Folio worker - Main Entry Point
 *
 * Background worker for digitised historical books:
 * - asynq consumer for the Redis-backed ocr/translation/maintenance queues
 * - OCR region extraction and reading-order pipeline (Tesseract-backed)
 * - translation fan-out over a book's text regions
 * - PostgreSQL persistence for pages, tasks, regions and overlays
 * - daily retention sweep of terminal task records
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/foliolab/folio-worker/internal/config"
	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/processor"
	"github.com/foliolab/folio-worker/internal/queue"
	"github.com/foliolab/folio-worker/internal/storage"
	"github.com/foliolab/folio-worker/internal/tasks"
	"github.com/foliolab/folio-worker/internal/translation"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("worker")
	logger.Info("folio worker starting",
		"redis", cfg.RedisURL,
		"concurrency", cfg.WorkerConcurrency,
		"ocr_languages", cfg.OCRLanguages,
		"retention_days", cfg.TaskRetentionDays)

	if err := checkRedis(cfg.RedisURL); err != nil {
		log.Fatalf("Redis health check failed: %v", err)
	}

	store, err := storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	cancel()
	logger.Info("storage initialized")

	engine := processor.NewTesseractEngine(cfg.OCRLanguages, logger.Named("tesseract"))
	pipeline := processor.NewPageProcessor(engine, cfg.LineTolerance, logger.Named("pipeline"))

	translator := translation.NewOpenAITranslator(translation.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.TranslationModel,
	})

	coordinator := tasks.NewOCRCoordinator(store, pipeline, logger.Named("ocr"))
	orchestrator := tasks.NewTranslationOrchestrator(store, translator, logger.Named("translation"))
	sweeper := tasks.NewRetentionSweeper(store, cfg.RetentionPeriod(), logger.Named("maintenance"))

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		Concurrency:       cfg.WorkerConcurrency,
		ProcessingTimeout: cfg.ProcessingTimeout,
		Coordinator:       coordinator,
		Orchestrator:      orchestrator,
		Sweeper:           sweeper,
		Logger:            logger.Named("queue"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	scheduler, err := queue.NewScheduler(cfg.RedisURL, cfg.SweepSchedule, logger.Named("scheduler"))
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	logger.Info("folio worker ready, waiting for jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("shutting down", "signal", sig)

	scheduler.Stop()
	if err := consumer.Stop(); err != nil {
		logger.Error("error stopping queue consumer", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("error closing storage", "error", err)
	}

	logger.Info("shutdown complete")
}

// checkRedis verifies Redis connectivity before the queues come up.
func checkRedis(redisURL string) error {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return err
	}
	client := redis.NewClient(opt)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
