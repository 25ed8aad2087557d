package ml

import (
	"math"

	"grain-tracer/internal/mask"
)

// maskThreshold binarizes the sigmoid of the coefficient-prototype sum.
const maskThreshold = 0.5

// ReconstructMask builds a candidate's binary mask in the prototype grid:
// each pixel is the sigmoid of the dot product between the candidate's
// coefficients and the prototype stack, thresholded, and clipped to the
// candidate's bounding box scaled into the grid.
func ReconstructMask(out *RawOutput, c Candidate, inputSize int) *mask.Binary {
	hm := out.ProtoDims[2]
	wm := out.ProtoDims[3]
	plane := hm * wm

	// Bounding box in grid coordinates.
	sx := float64(wm) / float64(inputSize)
	sy := float64(hm) / float64(inputSize)
	gx1 := clampInt(int(math.Floor(c.Box.X*sx)), 0, wm)
	gy1 := clampInt(int(math.Floor(c.Box.Y*sy)), 0, hm)
	gx2 := clampInt(int(math.Ceil((c.Box.X+c.Box.Width)*sx)), 0, wm)
	gy2 := clampInt(int(math.Ceil((c.Box.Y+c.Box.Height)*sy)), 0, hm)

	m := mask.NewBinary(wm, hm)
	for y := gy1; y < gy2; y++ {
		row := y * wm
		for x := gx1; x < gx2; x++ {
			var v float32
			for j := 0; j < NumMaskCoeffs; j++ {
				v += c.Coeffs[j] * out.Prototypes[j*plane+row+x]
			}
			if sigmoid(float64(v)) > maskThreshold {
				m.Pix[row+x] = 1
			}
		}
	}
	return m
}

// MaskAreaInOriginal converts a foreground pixel count in the gridW-wide
// prototype grid into an area in original-image pixels.
func MaskAreaInOriginal(count, inputSize, gridW int, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	side := float64(inputSize) / float64(gridW) / scale
	return float64(count) * side * side
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
