package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/storage"
)

func timeptr(t time.Time) *time.Time { return &t }

func TestSweepDeletesOnlyExpiredTerminalTasks(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{tasks: []storage.OCRTask{
		// Terminal and 31 days old: deleted.
		{ID: "old-completed", Status: storage.StatusCompleted, CompletedAt: timeptr(now.AddDate(0, 0, -31))},
		{ID: "old-failed", Status: storage.StatusFailed, CompletedAt: timeptr(now.AddDate(0, 0, -31))},
		// Terminal but recent: kept.
		{ID: "fresh-completed", Status: storage.StatusCompleted, CompletedAt: timeptr(now.AddDate(0, 0, -5))},
		// Ancient but never finished: kept.
		{ID: "ancient-processing", Status: storage.StatusProcessing},
	}}

	sweeper := NewRetentionSweeper(pruner, DefaultRetention, logging.NewLogger("test"))
	deleted, err := sweeper.Sweep(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	require.Len(t, pruner.tasks, 2)
	assert.Equal(t, "fresh-completed", pruner.tasks[0].ID)
	assert.Equal(t, "ancient-processing", pruner.tasks[1].ID)
}

func TestSweepRetainsTaskAtExactBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{tasks: []storage.OCRTask{
		{ID: "boundary", Status: storage.StatusCompleted, CompletedAt: timeptr(now.Add(-DefaultRetention))},
	}}

	deleted, err := NewRetentionSweeper(pruner, DefaultRetention, logging.NewLogger("test")).Sweep(context.Background(), now)

	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, pruner.tasks, 1)
}

func TestSweepCustomRetention(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{tasks: []storage.OCRTask{
		{ID: "two-days", Status: storage.StatusCompleted, CompletedAt: timeptr(now.AddDate(0, 0, -2))},
	}}

	deleted, err := NewRetentionSweeper(pruner, 24*time.Hour, logging.NewLogger("test")).Sweep(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSweepNonPositiveRetentionUsesDefault(t *testing.T) {
	sweeper := NewRetentionSweeper(&fakePruner{}, 0, logging.NewLogger("test"))
	assert.Equal(t, DefaultRetention, sweeper.retention)
}

func TestSweepPropagatesStoreError(t *testing.T) {
	pruner := &fakePruner{err: errors.New("deadlock detected")}
	deleted, err := NewRetentionSweeper(pruner, DefaultRetention, logging.NewLogger("test")).Sweep(context.Background(), time.Now())

	require.Error(t, err)
	assert.Zero(t, deleted)
}
