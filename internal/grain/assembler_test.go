package grain

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grain-tracer/internal/classic"
	"grain-tracer/internal/mask"
	"grain-tracer/internal/ml"
	"grain-tracer/internal/preprocess"
)

func solidSquare(t *testing.T, size, x0, y0, side int) *mask.Binary {
	t.Helper()
	m := mask.NewBinary(size, size)
	m.FillRect(x0, y0, x0+side, y0+side)
	return m
}

func classicResult(masks ...*mask.Binary) *classic.Result {
	return &classic.Result{
		Masks:             masks,
		ScaleFactor:       1,
		SimplifyOutlines:  true,
		SimplifyTolerance: 1,
	}
}

func TestFromClassicSolidSquare(t *testing.T) {
	m := solidSquare(t, 256, 10, 10, 100)

	a := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())
	grains := a.FromClassic(classicResult(m))
	require.Len(t, grains, 1)

	g := grains[0]
	assert.Equal(t, "grain-1", g.ID)
	assert.Nil(t, g.Confidence)

	// Simplification collapses the collinear boundary runs down to the
	// corners, and the half-pixel outline growth restores the full pixel
	// footprint: the polygon area matches the filled 100x100 region.
	assert.GreaterOrEqual(t, len(g.Polygon), 4)
	assert.LessOrEqual(t, len(g.Polygon), 8)
	assert.InDelta(t, 10000, g.Area, 50)
	assert.InDelta(t, 400, g.Perimeter, 12)
	assert.InDelta(t, 0.785, g.Circularity, 0.02)
	assert.InDelta(t, 60, g.Centroid.X, 2)
	assert.InDelta(t, 60, g.Centroid.Y, 2)
	assert.InDelta(t, 10, g.BoundingBox.X, 1)
	assert.InDelta(t, 100, g.BoundingBox.Width, 1)
}

func TestFromClassicAreaMatchesPopcount(t *testing.T) {
	// The traced-and-grown polygon area tracks the mask pixel count for
	// non-square regions too.
	m := mask.NewBinary(128, 128)
	m.FillRect(8, 8, 72, 40)

	a := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())
	grains := a.FromClassic(classicResult(m))
	require.Len(t, grains, 1)
	assert.InDelta(t, float64(m.Popcount()), grains[0].Area, 0.01*float64(m.Popcount())+4)
}

func TestFromClassicScalesToOriginal(t *testing.T) {
	m := solidSquare(t, 128, 10, 10, 50)

	a := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())
	result := classicResult(m)
	result.ScaleFactor = 0.5
	grains := a.FromClassic(result)
	require.Len(t, grains, 1)

	// Processing-space coordinates divide by the downscale factor on the
	// way back, doubling every vertex and quadrupling the area.
	g := grains[0]
	assert.InDelta(t, 10000, g.Area, 200)
	assert.InDelta(t, 20, g.BoundingBox.X, 2)
	assert.InDelta(t, 100, g.BoundingBox.Width, 2)
}

func TestFromClassicHonorsSimplifySetting(t *testing.T) {
	m := solidSquare(t, 64, 20, 20, 10)

	a := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())
	result := classicResult(m)
	result.SimplifyOutlines = false
	grains := a.FromClassic(result)
	require.Len(t, grains, 1)

	// Without simplification every traced boundary pixel survives as a
	// vertex: a 10x10 block has a 36-pixel boundary ring.
	assert.Len(t, grains[0].Polygon, 36)

	result.SimplifyOutlines = true
	simplified := a.FromClassic(result)
	require.Len(t, simplified, 1)
	assert.Less(t, len(simplified[0].Polygon), 10)
}

func TestMinVerticesDropsDegenerate(t *testing.T) {
	// Three collinear pixels trace to three points, below the vertex floor.
	sliver := mask.NewBinary(64, 64)
	sliver.Set(5, 5, 1)
	sliver.Set(6, 5, 1)
	sliver.Set(7, 5, 1)

	square := solidSquare(t, 64, 20, 20, 10)

	opts := DefaultAssembleOptions()
	opts.MinVertices = 4
	a := NewAssembler(opts, zerolog.Nop())

	grains := a.FromClassic(classicResult(sliver, square))
	require.Len(t, grains, 1)
	assert.Equal(t, "grain-1", grains[0].ID, "surviving grain is renumbered from one")
	assert.InDelta(t, 100, grains[0].Area, 10)
}

func TestNewAssemblerEnforcesVertexFloor(t *testing.T) {
	opts := DefaultAssembleOptions()
	opts.MinVertices = 0
	a := NewAssembler(opts, zerolog.Nop())
	assert.Equal(t, 3, a.Options.MinVertices)
}

func TestFromMLMapsThroughLetterbox(t *testing.T) {
	// 20x20 square in a 256-wide prototype grid. With no padding and unit
	// scale, each grid pixel spans four original pixels.
	m := solidSquare(t, 256, 10, 10, 20)

	det := ml.Detection{
		Mask:       m,
		Confidence: 0.92,
		GridW:      256,
		GridH:      256,
	}
	info := preprocess.Info{Scale: 1, PadX: 0, PadY: 0, OrigW: 1024, OrigH: 1024}

	a := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())
	grains := a.FromML([]ml.Detection{det}, info, 1024)
	require.Len(t, grains, 1)

	g := grains[0]
	require.NotNil(t, g.Confidence)
	assert.InDelta(t, 0.92, *g.Confidence, 1e-9)
	assert.InDelta(t, 38, g.BoundingBox.X, 2)
	assert.InDelta(t, 80, g.BoundingBox.Width, 3)
	assert.InDelta(t, 6400, g.Area, 200)
}

func TestFromClassicNilResult(t *testing.T) {
	a := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())
	assert.Nil(t, a.FromClassic(nil))
}
