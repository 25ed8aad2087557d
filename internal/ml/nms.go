package ml

import (
	"sort"

	"grain-tracer/pkg/geometry"
)

// NonMaxSuppression sorts candidates by confidence descending and greedily
// keeps each one whose IoU with every previously kept candidate is at or
// below the threshold. The kept list is capped at maxDetections.
func NonMaxSuppression(candidates []Candidate, iouThreshold float64, maxDetections int) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var kept []Candidate
	for _, c := range sorted {
		if maxDetections > 0 && len(kept) >= maxDetections {
			break
		}
		overlaps := false
		for _, k := range kept {
			if BoxIoU(c.Box, k.Box) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// BoxIoU computes intersection-over-union of two axis-aligned boxes.
func BoxIoU(a, b geometry.Rect) float64 {
	ix := overlap(a.X, a.X+a.Width, b.X, b.X+b.Width)
	iy := overlap(a.Y, a.Y+a.Height, b.Y, b.Y+b.Height)
	inter := ix * iy
	if inter <= 0 {
		return 0
	}
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func overlap(a1, a2, b1, b2 float64) float64 {
	lo := a1
	if b1 > lo {
		lo = b1
	}
	hi := a2
	if b2 < hi {
		hi = b2
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
