package ml

import (
	"grain-tracer/internal/preprocess"
	"grain-tracer/pkg/geometry"
)

// padMargin is the inactive border, in model-space pixels, inside each
// letterboxed edge. Detections centered there are gray-padding artifacts.
const padMargin = 20

// Candidate is one decoded detection before NMS.
type Candidate struct {
	// Box is the corner-form bounding box in model input space.
	Box        geometry.Rect
	Confidence float64
	Coeffs     []float32
}

// DecodeCandidates converts the raw detection tensor into candidates:
// per-candidate max class score thresholding, suppression of boxes centered
// in the letterbox padding, and center-form to corner-form conversion.
func DecodeCandidates(out *RawOutput, info preprocess.Info, inputSize int, confThreshold float64) []Candidate {
	numFeatures := out.DetDims[1]
	n := out.DetDims[2]
	numClasses := out.NumClasses()

	// Feature f of candidate i lives at [f*n + i].
	at := func(f, i int) float32 { return out.Detections[f*n+i] }

	minX, maxX := activeRange(info.PadX, inputSize)
	minY, maxY := activeRange(info.PadY, inputSize)

	var candidates []Candidate
	for i := 0; i < n; i++ {
		score := float64(at(boxFeatures, i))
		for c := 1; c < numClasses; c++ {
			if s := float64(at(boxFeatures+c, i)); s > score {
				score = s
			}
		}
		if score < confThreshold {
			continue
		}

		cx := float64(at(0, i))
		cy := float64(at(1, i))
		if cx < minX || cx > maxX || cy < minY || cy > maxY {
			continue
		}

		w := float64(at(2, i))
		h := float64(at(3, i))

		coeffs := make([]float32, NumMaskCoeffs)
		for m := 0; m < NumMaskCoeffs; m++ {
			coeffs[m] = at(numFeatures-NumMaskCoeffs+m, i)
		}

		candidates = append(candidates, Candidate{
			Box:        geometry.Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h},
			Confidence: score,
			Coeffs:     coeffs,
		})
	}
	return candidates
}

// activeRange returns the valid center span along one axis. The margin only
// applies where letterbox padding exists.
func activeRange(pad, inputSize int) (float64, float64) {
	if pad <= 0 {
		return 0, float64(inputSize)
	}
	return float64(pad + padMargin), float64(inputSize - pad - padMargin)
}
