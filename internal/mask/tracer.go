package mask

import (
	"github.com/rs/zerolog"

	"grain-tracer/pkg/geometry"
)

// Strategy selects a contour tracing algorithm.
type Strategy int

const (
	// StrategyMoore orders boundary pixels greedily by nearest unused
	// neighbor. Robust against noisy or disconnected masks; the default.
	StrategyMoore Strategy = iota
	// StrategyMarchingSquares walks cell edges with the classic 16-case
	// lookup. Produces lattice-aligned contours.
	StrategyMarchingSquares
)

func (s Strategy) String() string {
	switch s {
	case StrategyMoore:
		return "moore"
	case StrategyMarchingSquares:
		return "marching-squares"
	default:
		return "unknown"
	}
}

// Extractor converts a binary mask into an ordered, implicitly closed
// boundary polyline.
type Extractor struct {
	Strategy Strategy
	Log      zerolog.Logger
}

// Contour traces the mask boundary using the configured strategy. An empty
// or blank mask yields an empty contour, never an error.
func (e Extractor) Contour(m *Binary) []geometry.PointInt {
	switch e.Strategy {
	case StrategyMarchingSquares:
		return e.marchingSquares(m)
	default:
		return e.mooreTrace(m)
	}
}
