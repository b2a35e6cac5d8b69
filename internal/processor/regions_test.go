package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxRegionsPolygonToBoundingBox(t *testing.T) {
	raw := []RawRegion{
		{
			// Slightly rotated quadrilateral; the box is min/max of the
			// vertex coordinates.
			Polygon: []Point{
				{X: 12, Y: 8},
				{X: 110, Y: 10},
				{X: 108, Y: 42},
				{X: 10, Y: 40},
			},
			Text:       "hello",
			Confidence: 0.91,
		},
	}

	regions := BoxRegions(raw)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, "region_0", r.Label)
	assert.Equal(t, 10, r.X)
	assert.Equal(t, 8, r.Y)
	assert.Equal(t, 100, r.Width)
	assert.Equal(t, 34, r.Height)
	assert.Equal(t, "hello", r.Text)
	assert.InDelta(t, 0.91, r.Confidence, 1e-9)
}

func TestBoxRegionsDropsEmptyAndDegenerate(t *testing.T) {
	raw := []RawRegion{
		{Polygon: []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, Text: "   ", Confidence: 0.5},
		{Polygon: []Point{{5, 5}, {5, 5}, {5, 5}, {5, 5}}, Text: "point", Confidence: 0.5},
		{Polygon: []Point{{0, 0}, {20, 0}, {20, 10}, {0, 10}}, Text: " kept ", Confidence: 0.7},
		{Polygon: nil, Text: "no geometry", Confidence: 0.5},
	}

	regions := BoxRegions(raw)
	require.Len(t, regions, 1)
	assert.Equal(t, "region_0", regions[0].Label)
	assert.Equal(t, "kept", regions[0].Text)
}

func TestBoxRegionsLabelsFollowEmissionOrder(t *testing.T) {
	quad := func(x float64) []Point {
		return []Point{{x, 0}, {x + 10, 0}, {x + 10, 10}, {x, 10}}
	}
	raw := []RawRegion{
		{Polygon: quad(0), Text: "one", Confidence: 0.9},
		{Polygon: quad(20), Text: "two", Confidence: 0.9},
		{Polygon: quad(40), Text: "three", Confidence: 0.9},
	}

	regions := BoxRegions(raw)
	require.Len(t, regions, 3)
	for i, r := range regions {
		assert.Equal(t, i, r.OrderIndex)
	}
	assert.Equal(t, "region_0", regions[0].Label)
	assert.Equal(t, "region_1", regions[1].Label)
	assert.Equal(t, "region_2", regions[2].Label)
}

func TestBoxRegionsEmptyInput(t *testing.T) {
	assert.Empty(t, BoxRegions(nil))
}
