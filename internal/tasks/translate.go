/**
 * Translation orchestration over a book's text regions.
 */

package tasks

import (
	"context"

	apperrors "github.com/foliolab/folio-worker/internal/errors"
	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/storage"
	"github.com/foliolab/folio-worker/internal/translation"
)

// BatchSummary reports the outcome of one whole-book translation batch.
// TranslatedRegions counts new translations written by this run; regions
// skipped because a translation already existed count toward TotalRegions
// only.
type BatchSummary struct {
	BookID            string
	TargetLanguage    string
	TotalRegions      int
	TranslatedRegions int
	Error             string
}

// TranslationOrchestrator fans translation out across all regions of a
// book, and serves direct single-region requests.
type TranslationOrchestrator struct {
	store      RegionStore
	translator translation.Translator
	log        *logging.Logger
}

// NewTranslationOrchestrator creates an orchestrator.
func NewTranslationOrchestrator(store RegionStore, translator translation.Translator, log *logging.Logger) *TranslationOrchestrator {
	return &TranslationOrchestrator{store: store, translator: translator, log: log}
}

// TranslateBook translates every untranslated region of the book into the
// target language. Idempotent: regions that already carry a translation are
// skipped, so a re-run fills gaps only. The text submitted is the region's
// correction when one exists, the raw recognized text otherwise. One bad
// region never aborts the batch; its failure is logged and the remaining
// regions proceed. Only a failure enumerating the book's pages aborts, and
// is reported in the summary.
//
// Pages whose OCR has not completed yet simply contribute zero regions.
func (o *TranslationOrchestrator) TranslateBook(ctx context.Context, bookID, targetLanguage string) *BatchSummary {
	summary := &BatchSummary{BookID: bookID, TargetLanguage: targetLanguage}

	pages, err := o.store.ListBookPages(ctx, bookID)
	if err != nil {
		o.log.Error("cannot enumerate book pages", "book", bookID, "error", err)
		summary.Error = err.Error()
		return summary
	}

	for _, page := range pages {
		regions, err := o.store.ListPageRegions(ctx, page.ID)
		if err != nil {
			// Per-page isolation: skip this page, keep the batch going.
			o.log.Error("cannot list page regions", "page", page.ID, "error", err)
			continue
		}

		for i := range regions {
			region := &regions[i]
			summary.TotalRegions++

			if region.HasTranslation {
				continue
			}

			if err := o.translateOne(ctx, region, targetLanguage); err != nil {
				o.log.Error("region translation skipped", "region", region.ID, "error", err)
				continue
			}
			summary.TranslatedRegions++
		}
	}

	o.log.Info("book translation finished",
		"book", bookID, "language", targetLanguage,
		"total", summary.TotalRegions, "translated", summary.TranslatedRegions)
	return summary
}

// TranslateRegion translates a single region on demand. Unlike the batch
// path this always overwrites any existing translation: an explicit
// retranslation request beats bulk fill-in-the-gaps semantics. Errors are
// returned to the caller; no translation is written on failure.
func (o *TranslationOrchestrator) TranslateRegion(ctx context.Context, regionID, targetLanguage string) (*storage.Translation, error) {
	region, err := o.store.GetRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}

	translated, err := o.translator.Translate(ctx, region.EffectiveText(), targetLanguage)
	if err != nil {
		return nil, apperrors.NewTranslationError(regionID, err)
	}

	record := &storage.Translation{
		RegionID:       region.ID,
		TranslatedText: translated,
		Language:       targetLanguage,
		Method:         storage.MethodAuto,
		Translator:     translation.SystemTranslator,
	}
	if err := o.store.UpsertTranslation(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// translateOne runs the selection-translate-upsert sequence for one region.
func (o *TranslationOrchestrator) translateOne(ctx context.Context, region *storage.TextRegion, targetLanguage string) error {
	translated, err := o.translator.Translate(ctx, region.EffectiveText(), targetLanguage)
	if err != nil {
		return apperrors.NewTranslationError(region.ID, err)
	}

	return o.store.UpsertTranslation(ctx, &storage.Translation{
		RegionID:       region.ID,
		TranslatedText: translated,
		Language:       targetLanguage,
		Method:         storage.MethodAuto,
		Translator:     translation.SystemTranslator,
	})
}
