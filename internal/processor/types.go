/**
 * Shared data structures for the OCR pipeline.
 */

package processor

import (
	"context"
	"image"
)

// Point is a polygon vertex in image pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// RawRegion is a single detection as emitted by a recognition engine:
// an arbitrary quadrilateral (or larger polygon), the recognized text and a
// confidence in [0,1].
type RawRegion struct {
	Polygon    []Point
	Text       string
	Confidence float64
}

// Region is a normalized text region with an axis-aligned bounding box.
// Label is the provisional engine-emission identifier (region_<i>); the final
// reading position lives in OrderIndex.
type Region struct {
	Label      string
	X          int
	Y          int
	Width      int
	Height     int
	Text       string
	Confidence float64
	OrderIndex int
}

// Engine is the recognition capability the pipeline is built on. Any engine
// that can turn an image into (polygon, text, confidence) tuples can be
// substituted without touching orchestration logic.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]RawRegion, error)
}
