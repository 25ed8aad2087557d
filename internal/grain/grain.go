// Package grain assembles segmenter output into the final list of grain
// records: ordered boundary polygons in original-image coordinates with
// derived shape metrics.
package grain

import (
	"gonum.org/v1/gonum/stat"

	"grain-tracer/pkg/geometry"
)

// Grain is one detected mineral grain. The polygon is in original-image
// coordinates; Confidence is non-nil only for ML-derived grains. Ownership
// of the record transfers entirely to the caller.
type Grain struct {
	ID          string             `json:"id"`
	Polygon     []geometry.Point2D `json:"polygon"`
	Area        float64            `json:"area"`
	Perimeter   float64            `json:"perimeter"`
	Centroid    geometry.Point2D   `json:"centroid"`
	BoundingBox geometry.Rect      `json:"boundingBox"`
	Circularity float64            `json:"circularity"`
	Confidence  *float64           `json:"confidence,omitempty"`
}

// FindAt returns the first grain whose polygon contains the point, or nil.
// Used by the annotation layer for click hit testing.
func FindAt(grains []Grain, x, y float64) *Grain {
	p := geometry.Point2D{X: x, Y: y}
	for i := range grains {
		if !grains[i].BoundingBox.Contains(p) {
			continue
		}
		if geometry.PointInPolygon(p, grains[i].Polygon) {
			return &grains[i]
		}
	}
	return nil
}

// Summary holds aggregate statistics over a detection run.
type Summary struct {
	Count           int
	MeanArea        float64
	StdDevArea      float64
	MeanCircularity float64
}

// Summarize computes aggregate statistics for a grain list.
func Summarize(grains []Grain) Summary {
	if len(grains) == 0 {
		return Summary{}
	}
	areas := make([]float64, len(grains))
	circ := make([]float64, len(grains))
	for i, g := range grains {
		areas[i] = g.Area
		circ[i] = g.Circularity
	}
	return Summary{
		Count:           len(grains),
		MeanArea:        stat.Mean(areas, nil),
		StdDevArea:      stat.StdDev(areas, nil),
		MeanCircularity: stat.Mean(circ, nil),
	}
}
