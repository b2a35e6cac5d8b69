package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/foliolab/folio-worker/internal/processor"
	"github.com/foliolab/folio-worker/internal/storage"
)

// fakeTaskStore is an in-memory TaskStore recording every transition.
type fakeTaskStore struct {
	task *storage.OCRTask
	page *storage.Page

	loadErr        error
	processingErr  error
	createErr      error
	createAfter    int // fail after this many region inserts when createErr set
	completedErr   error
	markFailedErr  error
	created        []processor.Region
	completedConf  *float64
	failureMessage string
}

func (f *fakeTaskStore) GetTaskWithPage(ctx context.Context, taskID string) (*storage.OCRTask, *storage.Page, error) {
	if f.loadErr != nil {
		return nil, nil, f.loadErr
	}
	return f.task, f.page, nil
}

func (f *fakeTaskStore) MarkTaskProcessing(ctx context.Context, taskID, pageID string, startedAt time.Time) error {
	if f.processingErr != nil {
		return f.processingErr
	}
	f.task.Status = storage.StatusProcessing
	f.task.StartedAt = &startedAt
	f.page.OCRStatus = storage.StatusProcessing
	return nil
}

func (f *fakeTaskStore) MarkTaskCompleted(ctx context.Context, taskID, pageID string, confidence float64, completedAt time.Time) error {
	if f.completedErr != nil {
		return f.completedErr
	}
	f.task.Status = storage.StatusCompleted
	f.task.CompletedAt = &completedAt
	f.page.OCRStatus = storage.StatusCompleted
	f.page.OCRConfidence = &confidence
	f.completedConf = &confidence
	return nil
}

func (f *fakeTaskStore) MarkTaskFailed(ctx context.Context, taskID, pageID, message string, completedAt time.Time) error {
	if f.markFailedErr != nil {
		return f.markFailedErr
	}
	f.task.Status = storage.StatusFailed
	f.task.ErrorMessage = message
	f.task.CompletedAt = &completedAt
	f.page.OCRStatus = storage.StatusFailed
	f.failureMessage = message
	return nil
}

func (f *fakeTaskStore) CreateRegions(ctx context.Context, pageID string, regions []processor.Region) (int, error) {
	if f.createErr != nil {
		n := f.createAfter
		if n > len(regions) {
			n = len(regions)
		}
		f.created = append(f.created, regions[:n]...)
		return n, f.createErr
	}
	f.created = append(f.created, regions...)
	return len(regions), nil
}

// fakePipeline returns canned regions or an error.
type fakePipeline struct {
	regions []processor.Region
	err     error
}

func (f *fakePipeline) Process(ctx context.Context, imagePath string) ([]processor.Region, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.regions, nil
}

// fakeRegionStore is an in-memory RegionStore. Upserting a translation
// flips the owning region's HasTranslation flag, mirroring the join the
// real store performs.
type fakeRegionStore struct {
	pages        []storage.Page
	regions      map[string][]*storage.TextRegion // by page id
	translations map[string]*storage.Translation  // by region id
	listPagesErr error
	listRegErr   map[string]error // by page id
	upsertErr    map[string]error // by region id
}

func newFakeRegionStore() *fakeRegionStore {
	return &fakeRegionStore{
		regions:      make(map[string][]*storage.TextRegion),
		translations: make(map[string]*storage.Translation),
		listRegErr:   make(map[string]error),
		upsertErr:    make(map[string]error),
	}
}

func (f *fakeRegionStore) addRegion(pageID string, region *storage.TextRegion) {
	region.PageID = pageID
	f.regions[pageID] = append(f.regions[pageID], region)
}

func (f *fakeRegionStore) ListBookPages(ctx context.Context, bookID string) ([]storage.Page, error) {
	if f.listPagesErr != nil {
		return nil, f.listPagesErr
	}
	return f.pages, nil
}

func (f *fakeRegionStore) ListPageRegions(ctx context.Context, pageID string) ([]storage.TextRegion, error) {
	if err := f.listRegErr[pageID]; err != nil {
		return nil, err
	}
	out := make([]storage.TextRegion, 0, len(f.regions[pageID]))
	for _, r := range f.regions[pageID] {
		copied := *r
		copied.HasTranslation = f.translations[r.ID] != nil
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeRegionStore) GetRegion(ctx context.Context, regionID string) (*storage.TextRegion, error) {
	for _, regions := range f.regions {
		for _, r := range regions {
			if r.ID == regionID {
				copied := *r
				copied.HasTranslation = f.translations[r.ID] != nil
				return &copied, nil
			}
		}
	}
	return nil, fmt.Errorf("region not found: %s", regionID)
}

func (f *fakeRegionStore) UpsertTranslation(ctx context.Context, t *storage.Translation) error {
	if err := f.upsertErr[t.RegionID]; err != nil {
		return err
	}
	f.translations[t.RegionID] = t
	return nil
}

// fakeTranslator prefixes the submitted text so tests can see exactly what
// was sent, and can fail on chosen inputs.
type fakeTranslator struct {
	submitted []string
	failOn    map[string]error
}

func newFakeTranslator() *fakeTranslator {
	return &fakeTranslator{failOn: make(map[string]error)}
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	f.submitted = append(f.submitted, text)
	if err := f.failOn[text]; err != nil {
		return "", err
	}
	return "translated:" + text, nil
}

// fakePruner applies the store's retention semantics to an in-memory task
// list: terminal status and completion strictly before the cutoff.
type fakePruner struct {
	tasks []storage.OCRTask
	err   error
}

func (f *fakePruner) DeleteExpiredTasks(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var kept []storage.OCRTask
	var deleted int64
	for _, task := range f.tasks {
		if task.Status.Terminal() && task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, task)
	}
	f.tasks = kept
	return deleted, nil
}
