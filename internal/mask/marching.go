package mask

import "grain-tracer/pkg/geometry"

// Cell corner bits for the marching squares state. Diagonal-only states
// (6 and 9) are the saddle configurations.
const (
	cornerTL = 1
	cornerTR = 2
	cornerBL = 4
	cornerBR = 8
)

type step struct{ dx, dy int }

var (
	stepUp    = step{0, -1}
	stepDown  = step{0, 1}
	stepLeft  = step{-1, 0}
	stepRight = step{1, 0}
)

// marchDirections maps a cell state to the next walk direction. States 0
// and 15 never occur on a boundary; the saddle states 6 and 9 are resolved
// at walk time from the incoming direction.
var marchDirections = [16]step{
	1:  stepUp,
	2:  stepRight,
	3:  stepRight,
	4:  stepLeft,
	5:  stepUp,
	7:  stepRight,
	8:  stepDown,
	10: stepDown,
	11: stepDown,
	12: stepLeft,
	13: stepUp,
	14: stepLeft,
}

// marchingSquares walks the boundary lattice of the mask using the 16-case
// cell lookup. The walk terminates on return to the start cell, or after
// 4*width*height steps on degenerate topology, in which case the partial
// contour is returned and a warning is logged.
func (e Extractor) marchingSquares(m *Binary) []geometry.PointInt {
	startX, startY, ok := firstForeground(m)
	if !ok {
		return nil
	}

	// Start at the cell whose bottom-right corner is the first foreground
	// pixel, so the initial state is always 8 (walk down).
	cx, cy := startX-1, startY-1
	maxSteps := 4 * m.Width * m.Height
	prev := step{}

	var contour []geometry.PointInt
	for i := 0; ; i++ {
		if i >= maxSteps {
			e.Log.Warn().
				Int("steps", i).
				Int("width", m.Width).
				Int("height", m.Height).
				Msg("marching squares step cap reached, truncating contour")
			break
		}

		state := cellState(m, cx, cy)
		if state == 0 || state == 15 {
			break
		}

		next := marchDirections[state]
		switch state {
		case 6:
			// Saddle: prefer continuing along the incoming vertical.
			if prev == stepUp {
				next = stepLeft
			} else {
				next = stepRight
			}
		case 9:
			// Saddle: prefer continuing along the incoming horizontal.
			if prev == stepRight {
				next = stepUp
			} else {
				next = stepDown
			}
		}

		contour = append(contour, geometry.PointInt{X: cx + 1, Y: cy + 1})
		cx += next.dx
		cy += next.dy
		prev = next

		if cx == startX-1 && cy == startY-1 {
			break
		}
	}

	return contour
}

func cellState(m *Binary, cx, cy int) int {
	state := 0
	if m.At(cx, cy) != 0 {
		state |= cornerTL
	}
	if m.At(cx+1, cy) != 0 {
		state |= cornerTR
	}
	if m.At(cx, cy+1) != 0 {
		state |= cornerBL
	}
	if m.At(cx+1, cy+1) != 0 {
		state |= cornerBR
	}
	return state
}

func firstForeground(m *Binary) (int, int, bool) {
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] != 0 {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
