package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerrors "github.com/foliolab/folio-worker/internal/errors"
	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/processor"
	"github.com/foliolab/folio-worker/internal/storage"
)

func newPendingStore() *fakeTaskStore {
	return &fakeTaskStore{
		task: &storage.OCRTask{ID: "task-1", PageID: "page-1", Status: storage.StatusPending},
		page: &storage.Page{ID: "page-1", BookID: "book-1", ImagePath: "/scans/p1.png", OCRStatus: storage.StatusPending},
	}
}

func newCoordinator(store TaskStore, pipeline PagePipeline) *OCRCoordinator {
	c := NewOCRCoordinator(store, pipeline, logging.NewLogger("test"))
	c.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestRunSuccess(t *testing.T) {
	store := newPendingStore()
	pipeline := &fakePipeline{regions: []processor.Region{
		{Label: "region_0", Text: "first", Confidence: 0.9, Width: 10, Height: 10},
		{Label: "region_1", Text: "second", Confidence: 0.8, Width: 10, Height: 10},
		{Label: "region_2", Text: "third", Confidence: 0.7, Width: 10, Height: 10},
	}}

	summary := newCoordinator(store, pipeline).Run(context.Background(), "task-1")

	require.True(t, summary.Success)
	assert.Equal(t, "task-1", summary.TaskID)
	assert.Equal(t, "page-1", summary.PageID)
	assert.Equal(t, 3, summary.RegionCount)
	assert.InDelta(t, 0.8, summary.MeanConfidence, 1e-9)

	assert.Equal(t, storage.StatusCompleted, store.task.Status)
	assert.Equal(t, storage.StatusCompleted, store.page.OCRStatus)
	require.NotNil(t, store.page.OCRConfidence)
	assert.InDelta(t, 0.8, *store.page.OCRConfidence, 1e-9)
	assert.Len(t, store.created, 3)
	require.NotNil(t, store.task.StartedAt)
	require.NotNil(t, store.task.CompletedAt)
}

func TestRunZeroRegionsCompletesWithZeroConfidence(t *testing.T) {
	store := newPendingStore()
	summary := newCoordinator(store, &fakePipeline{regions: nil}).Run(context.Background(), "task-1")

	require.True(t, summary.Success)
	assert.Equal(t, 0, summary.RegionCount)
	assert.Zero(t, summary.MeanConfidence)
	assert.Equal(t, storage.StatusCompleted, store.task.Status)
}

func TestRunUnknownTaskMutatesNothing(t *testing.T) {
	store := newPendingStore()
	store.loadErr = pipeerrors.NewTaskNotFoundError("task-missing")

	summary := newCoordinator(store, &fakePipeline{}).Run(context.Background(), "task-missing")

	assert.False(t, summary.Success)
	assert.NotEmpty(t, summary.Error)
	assert.Equal(t, storage.StatusPending, store.task.Status)
	assert.Equal(t, storage.StatusPending, store.page.OCRStatus)
	assert.Empty(t, store.created)
}

func TestRunPipelineFailureRecordsFailed(t *testing.T) {
	store := newPendingStore()
	cause := pipeerrors.NewImageLoadError("/scans/p1.png", errors.New("no such file"))

	summary := newCoordinator(store, &fakePipeline{err: cause}).Run(context.Background(), "task-1")

	assert.False(t, summary.Success)
	assert.Equal(t, cause.Error(), summary.Error)
	assert.Equal(t, storage.StatusFailed, store.task.Status)
	assert.Equal(t, storage.StatusFailed, store.page.OCRStatus)
	assert.Equal(t, cause.Error(), store.failureMessage)
	require.NotNil(t, store.task.CompletedAt)
}

func TestRunRegionWriteFailureRecordsFailed(t *testing.T) {
	store := newPendingStore()
	store.createErr = errors.New("connection reset")
	store.createAfter = 1
	pipeline := &fakePipeline{regions: []processor.Region{
		{Label: "region_0", Text: "a", Confidence: 0.5},
		{Label: "region_1", Text: "b", Confidence: 0.5},
	}}

	summary := newCoordinator(store, pipeline).Run(context.Background(), "task-1")

	assert.False(t, summary.Success)
	assert.Equal(t, storage.StatusFailed, store.task.Status)
	// Regions written before the failure stay written.
	assert.Len(t, store.created, 1)
}

func TestRunFailureWriteFailureIsSwallowed(t *testing.T) {
	store := newPendingStore()
	store.markFailedErr = errors.New("database unavailable")
	cause := errors.New("recognition crashed")

	summary := newCoordinator(store, &fakePipeline{err: cause}).Run(context.Background(), "task-1")

	// The run still reports the original cause, not the secondary write error.
	assert.False(t, summary.Success)
	assert.Equal(t, cause.Error(), summary.Error)
}

func TestMeanConfidence(t *testing.T) {
	assert.Zero(t, meanConfidence(nil))
	assert.InDelta(t, 0.75, meanConfidence([]processor.Region{
		{Confidence: 0.5}, {Confidence: 1.0},
	}), 1e-9)
}
