/**
 * Persistence capabilities the task services depend on.
 *
 * Narrow interfaces, satisfied by storage.PostgresStore, so the services can
 * be exercised against in-memory fakes.
 */

package tasks

import (
	"context"
	"time"

	"github.com/foliolab/folio-worker/internal/processor"
	"github.com/foliolab/folio-worker/internal/storage"
)

// TaskStore is what the OCR coordinator needs: atomic task+page loads and
// the paired state transitions.
type TaskStore interface {
	GetTaskWithPage(ctx context.Context, taskID string) (*storage.OCRTask, *storage.Page, error)
	MarkTaskProcessing(ctx context.Context, taskID, pageID string, startedAt time.Time) error
	MarkTaskCompleted(ctx context.Context, taskID, pageID string, confidence float64, completedAt time.Time) error
	MarkTaskFailed(ctx context.Context, taskID, pageID, message string, completedAt time.Time) error
	CreateRegions(ctx context.Context, pageID string, regions []processor.Region) (int, error)
}

// RegionStore is what the translation orchestrator needs: region enumeration
// with overlays, and translation upserts.
type RegionStore interface {
	ListBookPages(ctx context.Context, bookID string) ([]storage.Page, error)
	ListPageRegions(ctx context.Context, pageID string) ([]storage.TextRegion, error)
	GetRegion(ctx context.Context, regionID string) (*storage.TextRegion, error)
	UpsertTranslation(ctx context.Context, t *storage.Translation) error
}

// TaskPruner is what the retention sweeper needs.
type TaskPruner interface {
	DeleteExpiredTasks(ctx context.Context, cutoff time.Time) (int64, error)
}

// PagePipeline is the OCR pipeline capability the coordinator drives.
// Satisfied by processor.PageProcessor.
type PagePipeline interface {
	Process(ctx context.Context, imagePath string) ([]processor.Region, error)
}
