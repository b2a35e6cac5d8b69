/**
 * Page processing pipeline: preprocess -> recognize -> reading order.
 */

package processor

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/foliolab/folio-worker/internal/errors"
	"github.com/foliolab/folio-worker/internal/logging"
)

// PageProcessor chains the preprocessing, recognition and reading-order
// stages for a single page image. Each Process call is sequential and
// self-contained; concurrency lives at the job-dispatch layer.
type PageProcessor struct {
	engine    Engine
	tolerance int
	log       *logging.Logger
}

// NewPageProcessor creates a page processor around the given recognition
// engine. tolerance is the reading-order line tolerance in pixels; values
// below zero select the default.
func NewPageProcessor(engine Engine, tolerance int, log *logging.Logger) *PageProcessor {
	if tolerance < 0 {
		tolerance = DefaultLineTolerance
	}
	return &PageProcessor{engine: engine, tolerance: tolerance, log: log}
}

// Process runs the full pipeline on one page image and returns the regions
// in final reading order. Any stage failure aborts the run.
func (p *PageProcessor) Process(ctx context.Context, imagePath string) ([]Region, error) {
	start := time.Now()

	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	normalized := Preprocess(img)

	raw, err := p.engine.Recognize(ctx, normalized)
	if err != nil {
		var pe *apperrors.PipelineError
		if !errors.As(err, &pe) {
			err = apperrors.NewRecognitionError(err)
		}
		return nil, err
	}

	regions := AssignReadingOrder(BoxRegions(raw), p.tolerance)

	p.log.Info("page processed",
		"image", imagePath,
		"regions", len(regions),
		"duration", time.Since(start).Round(time.Millisecond))
	return regions, nil
}
