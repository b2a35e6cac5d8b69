/**
 * Retention sweep for terminal OCR task records.
 */

package tasks

import (
	"context"
	"time"

	"github.com/foliolab/folio-worker/internal/logging"
)

// DefaultRetention is how long terminal task records are kept before the
// sweeper removes them.
const DefaultRetention = 30 * 24 * time.Hour

// RetentionSweeper deletes completed and failed task records older than the
// retention window. Tasks are ephemeral audit records; pages and regions
// are durable content and are never touched.
type RetentionSweeper struct {
	store     TaskPruner
	retention time.Duration
	log       *logging.Logger
}

// NewRetentionSweeper creates a sweeper. A non-positive retention selects
// the default 30 days.
func NewRetentionSweeper(store TaskPruner, retention time.Duration, log *logging.Logger) *RetentionSweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RetentionSweeper{store: store, retention: retention, log: log}
}

// Sweep deletes every terminal-state task whose completion timestamp is
// strictly older than now minus the retention window. Tasks completed
// exactly at the boundary are retained; pending and processing tasks are
// never deleted regardless of age.
func (s *RetentionSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.retention)

	deleted, err := s.store.DeleteExpiredTasks(ctx, cutoff)
	if err != nil {
		s.log.Error("retention sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}

	s.log.Info("retention sweep finished", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}
