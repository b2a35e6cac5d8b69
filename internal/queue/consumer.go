/**
 * Queue consumer for the folio worker.
 *
 * Consumes jobs from the Redis-backed queues via asynq and dispatches them
 * to the task services. Each job runs to completion on one worker goroutine;
 * concurrency lives entirely at this dispatch layer, never inside the
 * pipeline algorithms.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/tasks"
)

// Consumer handles job consumption from the Redis queues.
type Consumer struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	config *ConsumerConfig
	log    *logging.Logger
}

// ConsumerConfig holds consumer configuration and the services jobs are
// dispatched to.
type ConsumerConfig struct {
	RedisURL          string
	Concurrency       int
	ProcessingTimeout time.Duration // per-OCR-job ceiling; guards a hung recognition call

	Coordinator  *tasks.OCRCoordinator
	Orchestrator *tasks.TranslationOrchestrator
	Sweeper      *tasks.RetentionSweeper
	Logger       *logging.Logger
}

// NewConsumer creates a queue consumer serving the ocr, translation and
// maintenance queues.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.Coordinator == nil || cfg.Orchestrator == nil || cfg.Sweeper == nil {
		return nil, fmt.Errorf("all task services are required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("Logger is required")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	log := cfg.Logger

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				QueueOCR:         6,
				QueueTranslation: 3,
				QueueMaintenance: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	consumer := &Consumer{
		client: asynq.NewClient(redisOpt),
		server: server,
		mux:    asynq.NewServeMux(),
		config: cfg,
		log:    log,
	}

	consumer.mux.HandleFunc(TypeProcessPage, consumer.handleProcessPage)
	consumer.mux.HandleFunc(TypeTranslateBook, consumer.handleTranslateBook)
	consumer.mux.HandleFunc(TypeSweepTasks, consumer.handleSweepTasks)

	return consumer, nil
}

// Start begins consuming jobs. Non-blocking.
func (c *Consumer) Start() error {
	c.log.Info("starting queue consumer",
		"concurrency", c.config.Concurrency,
		"queues", fmt.Sprintf("%s,%s,%s", QueueOCR, QueueTranslation, QueueMaintenance))
	return c.server.Start(c.mux)
}

// Stop shuts the consumer down gracefully, waiting for in-flight jobs.
func (c *Consumer) Stop() error {
	c.log.Info("stopping queue consumer")
	c.server.Shutdown()
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}
	return nil
}

// EnqueueOCRTask submits a single-page OCR job. The job dispatcher must not
// double-schedule a task id; the coordinator does not lock against
// concurrent runs of the same task.
func (c *Consumer) EnqueueOCRTask(ctx context.Context, taskID string) error {
	payload, err := json.Marshal(ProcessPagePayload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = c.client.EnqueueContext(ctx, asynq.NewTask(TypeProcessPage, payload), asynq.Queue(QueueOCR))
	if err != nil {
		return fmt.Errorf("failed to enqueue ocr task %s: %w", taskID, err)
	}
	return nil
}

// EnqueueBookTranslation submits a whole-book translation batch.
func (c *Consumer) EnqueueBookTranslation(ctx context.Context, bookID, targetLanguage string) error {
	payload, err := json.Marshal(TranslateBookPayload{BookID: bookID, TargetLanguage: targetLanguage})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = c.client.EnqueueContext(ctx, asynq.NewTask(TypeTranslateBook, payload), asynq.Queue(QueueTranslation))
	if err != nil {
		return fmt.Errorf("failed to enqueue translation for book %s: %w", bookID, err)
	}
	return nil
}

// handleProcessPage runs one page's OCR. The run is fire-and-forget: the
// coordinator records business failures in the task record, so the handler
// returns nil either way and asynq never retries them.
func (c *Consumer) handleProcessPage(ctx context.Context, task *asynq.Task) error {
	var payload ProcessPagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w: %w", err, asynq.SkipRetry)
	}

	runCtx := ctx
	if c.config.ProcessingTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.config.ProcessingTimeout)
		defer cancel()
	}

	summary := c.config.Coordinator.Run(runCtx, payload.TaskID)
	if !summary.Success {
		c.log.Warn("ocr job finished with failure recorded", "task", payload.TaskID, "error", summary.Error)
		return nil
	}

	c.log.Info("ocr job finished", "task", payload.TaskID,
		"regions", summary.RegionCount, "confidence", summary.MeanConfidence)
	return nil
}

// handleTranslateBook runs one whole-book translation batch. Per-region
// failures are already absorbed by the orchestrator; an enumeration failure
// is reported in the summary and not retried.
func (c *Consumer) handleTranslateBook(ctx context.Context, task *asynq.Task) error {
	var payload TranslateBookPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w: %w", err, asynq.SkipRetry)
	}

	summary := c.config.Orchestrator.TranslateBook(ctx, payload.BookID, payload.TargetLanguage)
	if summary.Error != "" {
		c.log.Warn("translation batch aborted", "book", payload.BookID, "error", summary.Error)
		return nil
	}

	c.log.Info("translation batch finished", "book", payload.BookID,
		"total", summary.TotalRegions, "translated", summary.TranslatedRegions)
	return nil
}

// handleSweepTasks runs the retention sweep. Sweep errors are returned so
// asynq reports and retries them.
func (c *Consumer) handleSweepTasks(ctx context.Context, _ *asynq.Task) error {
	_, err := c.config.Sweeper.Sweep(ctx, time.Now())
	return err
}
