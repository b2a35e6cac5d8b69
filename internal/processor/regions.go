/**
 * Region normalization: engine polygons to axis-aligned bounding boxes.
 */

package processor

import (
	"fmt"
	"math"
	"strings"
)

// BoxRegions converts raw engine detections into normalized regions. Each
// polygon collapses to its axis-aligned bounding box (min/max of the vertex
// coordinates). Rotation is discarded; downstream ordering needs box
// geometry only.
//
// Labels are provisional, region_<i> in emission order. They are superseded
// by the reading-order index but kept as stable identifiers within the page.
// Detections with no text after trimming or with a degenerate box are
// dropped.
func BoxRegions(raw []RawRegion) []Region {
	regions := make([]Region, 0, len(raw))
	for _, r := range raw {
		text := strings.TrimSpace(r.Text)
		if text == "" || len(r.Polygon) == 0 {
			continue
		}

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range r.Polygon {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}

		width := int(maxX) - int(minX)
		height := int(maxY) - int(minY)
		if width <= 0 || height <= 0 {
			continue
		}

		regions = append(regions, Region{
			Label:      fmt.Sprintf("region_%d", len(regions)),
			X:          int(minX),
			Y:          int(minY),
			Width:      width,
			Height:     height,
			Text:       text,
			Confidence: r.Confidence,
			OrderIndex: len(regions),
		})
	}
	return regions
}
