package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grain-tracer/pkg/geometry"
)

func TestMarchingSquaresSinglePixel(t *testing.T) {
	m := NewBinary(5, 5)
	m.Set(2, 2, 1)

	contour := testExtractor(StrategyMarchingSquares).Contour(m)
	require.Len(t, contour, 4)

	pts := make([]geometry.Point2D, len(contour))
	for i, p := range contour {
		pts[i] = p.ToFloat()
	}
	assert.InDelta(t, 1.0, geometry.PolygonArea(pts), 1e-9)
}

func TestMarchingSquaresBlock(t *testing.T) {
	m := NewBinary(12, 12)
	m.FillRect(2, 2, 7, 7) // 5x5 block

	contour := testExtractor(StrategyMarchingSquares).Contour(m)
	require.Len(t, contour, 20)

	pts := make([]geometry.Point2D, len(contour))
	for i, p := range contour {
		pts[i] = p.ToFloat()
	}
	// Lattice loop encloses exactly the foreground area.
	assert.InDelta(t, float64(m.Popcount()), geometry.PolygonArea(pts), 1e-9)
}

func TestMarchingSquaresTerminates(t *testing.T) {
	// Checkerboard is all saddle cases; the walk must still stop.
	m := NewBinary(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x+y)%2 == 0 {
				m.Set(x, y, 1)
			}
		}
	}

	done := make(chan []geometry.PointInt, 1)
	go func() {
		done <- testExtractor(StrategyMarchingSquares).Contour(m)
	}()
	contour := <-done
	assert.LessOrEqual(t, len(contour), 4*16*16)
}
