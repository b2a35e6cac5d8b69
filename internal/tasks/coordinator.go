/**
 * OCR task coordinator.
 *
 * Drives one page's recognition lifecycle through the task state machine:
 * pending -> processing -> completed/failed, mirroring every transition onto
 * the owning page. Runs in a fire-and-forget background context: failures
 * are recorded in the task record, never raised to a caller.
 */

package tasks

import (
	"context"
	"time"

	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/processor"
	"github.com/foliolab/folio-worker/internal/storage"
)

// RunSummary reports the outcome of one OCR run.
type RunSummary struct {
	TaskID         string
	PageID         string
	Success        bool
	RegionCount    int
	MeanConfidence float64
	Error          string
}

// OCRCoordinator executes OCR tasks against a page pipeline and a task
// store.
type OCRCoordinator struct {
	store    TaskStore
	pipeline PagePipeline
	log      *logging.Logger
	now      func() time.Time
}

// NewOCRCoordinator creates a coordinator. The logger is required; services
// receive it explicitly rather than using ambient state.
func NewOCRCoordinator(store TaskStore, pipeline PagePipeline, log *logging.Logger) *OCRCoordinator {
	return &OCRCoordinator{
		store:    store,
		pipeline: pipeline,
		log:      log,
		now:      time.Now,
	}
}

// Run processes the page owned by the given task.
//
// The task and its page are loaded together before any transition, so the
// failure-recording path always has both records in hand; an unknown task
// id mutates nothing and simply returns a failure summary. After the
// transition to processing, any error marks task and page failed with the
// error text; if that final write itself fails there is nobody to notify,
// so it is logged and swallowed.
func (c *OCRCoordinator) Run(ctx context.Context, taskID string) *RunSummary {
	task, page, err := c.store.GetTaskWithPage(ctx, taskID)
	if err != nil {
		c.log.Error("cannot load ocr task", "task", taskID, "error", err)
		return &RunSummary{TaskID: taskID, Error: err.Error()}
	}

	c.log.Info("starting ocr run", "task", task.ID, "page", page.ID, "image", page.ImagePath)

	if err := c.store.MarkTaskProcessing(ctx, task.ID, page.ID, c.now()); err != nil {
		return c.recordFailure(ctx, task, page, err)
	}

	regions, err := c.pipeline.Process(ctx, page.ImagePath)
	if err != nil {
		return c.recordFailure(ctx, task, page, err)
	}

	written, err := c.store.CreateRegions(ctx, page.ID, regions)
	if err != nil {
		c.log.Error("region persistence incomplete", "task", task.ID, "written", written, "total", len(regions))
		return c.recordFailure(ctx, task, page, err)
	}

	confidence := meanConfidence(regions)
	if err := c.store.MarkTaskCompleted(ctx, task.ID, page.ID, confidence, c.now()); err != nil {
		return c.recordFailure(ctx, task, page, err)
	}

	c.log.Info("ocr run completed",
		"task", task.ID, "page", page.ID,
		"regions", len(regions), "confidence", confidence)

	return &RunSummary{
		TaskID:         task.ID,
		PageID:         page.ID,
		Success:        true,
		RegionCount:    len(regions),
		MeanConfidence: confidence,
	}
}

// recordFailure transitions task and page to failed with the error captured
// verbatim. Best-effort: a failure writing the failure state is logged, not
// propagated.
func (c *OCRCoordinator) recordFailure(ctx context.Context, task *storage.OCRTask, page *storage.Page, cause error) *RunSummary {
	c.log.Error("ocr run failed", "task", task.ID, "page", page.ID, "error", cause)

	if err := c.store.MarkTaskFailed(ctx, task.ID, page.ID, cause.Error(), c.now()); err != nil {
		c.log.Error("cannot record task failure", "task", task.ID, "error", err)
	}

	return &RunSummary{TaskID: task.ID, PageID: page.ID, Error: cause.Error()}
}

// meanConfidence is the arithmetic mean of the region confidences, 0 when
// no regions were found.
func meanConfidence(regions []processor.Region) float64 {
	if len(regions) == 0 {
		return 0
	}
	var sum float64
	for _, r := range regions {
		sum += r.Confidence
	}
	return sum / float64(len(regions))
}
