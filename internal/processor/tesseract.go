/**
 * Tesseract-backed recognition engine.
 *
 * Wraps gosseract behind the Engine interface: the pipeline only sees
 * (polygon, text, confidence) tuples and stays agnostic to the concrete
 * engine supplying them.
 */

package processor

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	apperrors "github.com/foliolab/folio-worker/internal/errors"
	"github.com/foliolab/folio-worker/internal/logging"
)

// TesseractEngine recognizes text line by line using a local Tesseract
// installation.
type TesseractEngine struct {
	languages []string
	log       *logging.Logger
}

// NewTesseractEngine creates a Tesseract engine for the given language codes
// (e.g. chi_sim, eng).
func NewTesseractEngine(languages []string, log *logging.Logger) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages, log: log}
}

// Recognize runs Tesseract over the image and emits one RawRegion per
// detected text line. The polygon is the four corners of the line's box;
// confidences are rescaled from Tesseract's percent range into [0,1].
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]RawRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewRecognitionError(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.NewRecognitionError(err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, apperrors.NewRecognitionError(err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, apperrors.NewRecognitionError(err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, apperrors.NewRecognitionError(err)
	}

	raw := make([]RawRegion, 0, len(boxes))
	for _, box := range boxes {
		raw = append(raw, RawRegion{
			Polygon:    rectPolygon(box.Box),
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
		})
	}

	e.log.Debug("tesseract recognition finished", "lines", len(raw), "languages", e.languages)
	return raw, nil
}

// rectPolygon expands a rectangle into its four corner points, clockwise
// from the top-left.
func rectPolygon(r image.Rectangle) []Point {
	return []Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
