package preprocess

import (
	"math"

	"grain-tracer/pkg/geometry"
)

// MaskToOriginal maps a point in the model's gridW x gridH mask space back
// into original image coordinates, undoing the letterbox resize and
// padding. Results are clamped to the image bounds.
func MaskToOriginal(info Info, inputSize, gridW, gridH int, p geometry.Point2D) geometry.PointInt {
	mx := p.X / float64(gridW) * float64(inputSize)
	my := p.Y / float64(gridH) * float64(inputSize)

	x := int(math.Round((mx - float64(info.PadX)) / info.Scale))
	y := int(math.Round((my - float64(info.PadY)) / info.Scale))

	return geometry.PointInt{
		X: clampInt(x, 0, info.OrigW-1),
		Y: clampInt(y, 0, info.OrigH-1),
	}
}

// OriginalToModel maps an original-image point into model input space.
func OriginalToModel(info Info, p geometry.PointInt) geometry.Point2D {
	return geometry.Point2D{
		X: float64(p.X)*info.Scale + float64(info.PadX),
		Y: float64(p.Y)*info.Scale + float64(info.PadY),
	}
}

// DownscaleToOriginal maps a processing-space point from the classic path
// back into original coordinates by dividing out the downscale factor,
// rounding to the nearest integer pixel. A factor of 1 is the identity.
func DownscaleToOriginal(scaleFactor float64, p geometry.Point2D) geometry.PointInt {
	if scaleFactor == 0 {
		scaleFactor = 1
	}
	return geometry.PointInt{
		X: int(math.Round(p.X / scaleFactor)),
		Y: int(math.Round(p.Y / scaleFactor)),
	}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
