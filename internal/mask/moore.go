package mask

import "grain-tracer/pkg/geometry"

const (
	// Boundary sets smaller than this are returned in raster order as-is.
	minBoundaryPixels = 4
	// Maximum Manhattan distance to the next unused boundary pixel before
	// the walk truncates. Tolerates small gaps in noisy masks.
	maxNeighborJump = 10
)

// mooreTrace collects boundary pixels and orders them into a closed path by
// repeatedly stepping to the nearest unused boundary pixel. Disconnected
// fragments beyond maxNeighborJump are dropped rather than failing.
func (e Extractor) mooreTrace(m *Binary) []geometry.PointInt {
	boundary := m.BoundaryPixels()
	if len(boundary) < minBoundaryPixels {
		return boundary
	}

	used := make([]bool, len(boundary))
	ordered := make([]geometry.PointInt, 0, len(boundary))

	// Start from the first boundary pixel in raster-scan order.
	current := 0
	used[0] = true
	ordered = append(ordered, boundary[0])

	for len(ordered) < len(boundary) {
		best := -1
		bestDist := maxNeighborJump + 1
		for i, pt := range boundary {
			if used[i] {
				continue
			}
			d := boundary[current].ManhattanDistance(pt)
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		if best < 0 {
			// No unused pixel within tolerance; truncate the walk.
			e.Log.Debug().
				Int("ordered", len(ordered)).
				Int("boundary", len(boundary)).
				Msg("contour walk truncated at gap")
			break
		}
		used[best] = true
		ordered = append(ordered, boundary[best])
		current = best
	}

	return ordered
}
