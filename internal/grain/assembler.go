package grain

import (
	"fmt"

	"github.com/rs/zerolog"

	"grain-tracer/internal/classic"
	"grain-tracer/internal/mask"
	"grain-tracer/internal/ml"
	"grain-tracer/internal/preprocess"
	"grain-tracer/pkg/geometry"
)

// AssembleOptions configures the mask-to-grain conversion shared by both
// segmentation paths. Simplify and SimplifyTolerance apply to the ML path;
// the classic path carries its own simplification settings on its result.
type AssembleOptions struct {
	Strategy          mask.Strategy
	Simplify          bool
	SimplifyTolerance float64 // Douglas-Peucker epsilon, processing-space px
	MinVertices       int     // grains with fewer final vertices are dropped
}

// DefaultAssembleOptions returns the application defaults.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{
		Strategy:          mask.StrategyMoore,
		Simplify:          true,
		SimplifyTolerance: 1.0,
		MinVertices:       3,
	}
}

// Assembler converts binary masks into Grain records: contour extraction,
// simplification, coordinate mapping, then metrics.
type Assembler struct {
	Options AssembleOptions
	Log     zerolog.Logger
}

// NewAssembler creates an assembler with the given options.
func NewAssembler(opts AssembleOptions, log zerolog.Logger) *Assembler {
	if opts.MinVertices < 3 {
		opts.MinVertices = 3
	}
	return &Assembler{Options: opts, Log: log}
}

// FromClassic assembles grains from a classic segmentation result,
// mapping processing-space contours back through the downscale factor.
func (a *Assembler) FromClassic(result *classic.Result) []Grain {
	if result == nil {
		return nil
	}
	mapFn := func(p geometry.Point2D) geometry.PointInt {
		return preprocess.DownscaleToOriginal(result.ScaleFactor, p)
	}

	var grains []Grain
	for _, m := range result.Masks {
		if g, ok := a.assemble(m, mapFn, nil, result.SimplifyOutlines, result.SimplifyTolerance); ok {
			g.ID = fmt.Sprintf("grain-%d", len(grains)+1)
			grains = append(grains, g)
		}
	}
	a.logSummary(len(result.Masks), grains)
	return grains
}

// FromML assembles grains from ML detections, mapping prototype-grid
// contours back through the letterbox parameters.
func (a *Assembler) FromML(detections []ml.Detection, info preprocess.Info, inputSize int) []Grain {
	var grains []Grain
	for _, det := range detections {
		gridW, gridH := det.GridW, det.GridH
		mapFn := func(p geometry.Point2D) geometry.PointInt {
			return preprocess.MaskToOriginal(info, inputSize, gridW, gridH, p)
		}
		confidence := det.Confidence
		if g, ok := a.assemble(det.Mask, mapFn, &confidence, a.Options.Simplify, a.Options.SimplifyTolerance); ok {
			g.ID = fmt.Sprintf("grain-%d", len(grains)+1)
			grains = append(grains, g)
		}
	}
	a.logSummary(len(detections), grains)
	return grains
}

// assemble runs one mask through the shared geometry pipeline. Degenerate
// masks produce no grain and no error.
func (a *Assembler) assemble(m *mask.Binary, mapFn func(geometry.Point2D) geometry.PointInt, confidence *float64, simplify bool, tolerance float64) (Grain, bool) {
	extractor := mask.Extractor{Strategy: a.Options.Strategy, Log: a.Log}
	contour := extractor.Contour(m)
	if len(contour) < a.Options.MinVertices {
		return Grain{}, false
	}

	points := make([]geometry.Point2D, len(contour))
	for i, p := range contour {
		points[i] = p.ToFloat()
	}

	// Simplification happens in processing space, before mapping.
	if simplify {
		points = geometry.SimplifyClosed(points, tolerance)
	}
	if len(points) < a.Options.MinVertices {
		return Grain{}, false
	}

	// The Moore tracer emits pixel centers, which undercounts a filled
	// region by its half-pixel boundary ring. Grow the outline so the
	// polygon covers the full pixel footprint and its area matches the
	// mask popcount.
	if a.Options.Strategy == mask.StrategyMoore {
		points = geometry.InflatePolygon(points, 0.5)
	}

	polygon := make([]geometry.Point2D, len(points))
	for i, p := range points {
		polygon[i] = mapFn(p).ToFloat()
	}

	area := geometry.PolygonArea(polygon)
	perimeter := geometry.PolygonPerimeter(polygon)

	return Grain{
		Polygon:     polygon,
		Area:        area,
		Perimeter:   perimeter,
		Centroid:    geometry.Centroid(polygon),
		BoundingBox: geometry.BoundingBox(polygon),
		Circularity: geometry.Circularity(area, perimeter),
		Confidence:  confidence,
	}, true
}

func (a *Assembler) logSummary(masks int, grains []Grain) {
	s := Summarize(grains)
	a.Log.Debug().
		Int("masks", masks).
		Int("grains", s.Count).
		Float64("mean_area", s.MeanArea).
		Float64("mean_circularity", s.MeanCircularity).
		Msg("grains assembled")
}
