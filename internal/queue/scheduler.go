/**
 * Periodic scheduling for maintenance jobs.
 */

package queue

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/foliolab/folio-worker/internal/logging"
)

// DefaultSweepSchedule runs the retention sweep once a day.
const DefaultSweepSchedule = "@every 24h"

// Scheduler enqueues the periodic retention sweep onto the maintenance
// queue. It only produces jobs; the consumer executes them.
type Scheduler struct {
	scheduler *asynq.Scheduler
	log       *logging.Logger
}

// NewScheduler creates a scheduler registering the sweep task at the given
// cadence (cron or @every form). An empty spec selects the daily default.
func NewScheduler(redisURL, sweepSpec string, log *logging.Logger) (*Scheduler, error) {
	if sweepSpec == "" {
		sweepSpec = DefaultSweepSchedule
	}

	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)

	entryID, err := scheduler.Register(
		sweepSpec,
		asynq.NewTask(TypeSweepTasks, nil),
		asynq.Queue(QueueMaintenance),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register sweep schedule %q: %w", sweepSpec, err)
	}

	log.Info("registered retention sweep", "schedule", sweepSpec, "entry", entryID)
	return &Scheduler{scheduler: scheduler, log: log}, nil
}

// Start begins emitting scheduled jobs. Non-blocking.
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
