/**
 * Reading-order reconstruction.
 *
 * Groups recognized regions into visual lines by vertical position, then
 * orders lines top-to-bottom and regions within a line left-to-right. The
 * resulting sequence is the order a human would read the page in.
 */

package processor

import "sort"

// DefaultLineTolerance is the vertical pixel tolerance within which two
// regions are considered part of the same line.
const DefaultLineTolerance = 20

// AssignReadingOrder reassigns OrderIndex on the given regions so that the
// indices form the natural reading sequence: 0-based, unique and contiguous.
//
// Line grouping sweeps regions in ascending top-edge order. A line's
// representative y is the y of its first member and is never updated as more
// regions join. A running average would drift down a page whose line
// baselines shift gradually, eventually merging distinct lines. A region
// joins the current line when its y is within tolerance of the
// representative; otherwise the line is closed (sorted by x) and a new one
// starts.
func AssignReadingOrder(regions []Region, tolerance int) []Region {
	if len(regions) == 0 {
		return regions
	}
	if tolerance < 0 {
		tolerance = DefaultLineTolerance
	}

	byTop := make([]Region, len(regions))
	copy(byTop, regions)
	sort.SliceStable(byTop, func(i, j int) bool { return byTop[i].Y < byTop[j].Y })

	var lines [][]Region
	currentLine := []Region{byTop[0]}
	representativeY := byTop[0].Y

	for _, region := range byTop[1:] {
		if absInt(region.Y-representativeY) <= tolerance {
			currentLine = append(currentLine, region)
			continue
		}
		lines = append(lines, sortLine(currentLine))
		currentLine = []Region{region}
		representativeY = region.Y
	}
	lines = append(lines, sortLine(currentLine))

	ordered := make([]Region, 0, len(regions))
	for _, line := range lines {
		ordered = append(ordered, line...)
	}
	for i := range ordered {
		ordered[i].OrderIndex = i
	}
	return ordered
}

// sortLine orders the members of one visual line left to right.
func sortLine(line []Region) []Region {
	sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	return line
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
