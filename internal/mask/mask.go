// Package mask provides the binary mask type produced by both segmenters
// and the contour tracers that convert masks to ordered boundary polylines.
package mask

import "grain-tracer/pkg/geometry"

// Binary is a width x height mask of {0,1} bytes. Reads outside the mask
// bounds are treated as background.
type Binary struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBinary creates an all-background mask.
func NewBinary(width, height int) *Binary {
	return &Binary{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns 1 if the pixel is foreground, 0 otherwise. Out-of-bounds
// coordinates are background.
func (m *Binary) At(x, y int) uint8 {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set marks the pixel as foreground (v != 0) or background.
func (m *Binary) Set(x, y int, v uint8) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	if v != 0 {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// Popcount returns the number of foreground pixels.
func (m *Binary) Popcount() int {
	count := 0
	for _, v := range m.Pix {
		if v != 0 {
			count++
		}
	}
	return count
}

// Empty reports whether the mask has no foreground pixels.
func (m *Binary) Empty() bool {
	for _, v := range m.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// FillRect marks a rectangular region as foreground. Used by callers
// assembling synthetic masks; coordinates are clipped to the mask.
func (m *Binary) FillRect(x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, 1)
		}
	}
}

// isBoundary reports whether (x,y) is a foreground pixel with at least one
// four-connected background neighbor.
func (m *Binary) isBoundary(x, y int) bool {
	if m.At(x, y) == 0 {
		return false
	}
	return m.At(x-1, y) == 0 || m.At(x+1, y) == 0 ||
		m.At(x, y-1) == 0 || m.At(x, y+1) == 0
}

// BoundaryPixels collects all boundary pixels in raster-scan order.
func (m *Binary) BoundaryPixels() []geometry.PointInt {
	var pts []geometry.PointInt
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.isBoundary(x, y) {
				pts = append(pts, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return pts
}
