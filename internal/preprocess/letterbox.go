// Package preprocess converts raster images into the fixed-size normalized
// tensors the segmentation model consumes, and maps coordinates between
// processing space and original image space.
package preprocess

import (
	"errors"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// DefaultInputSize is the model's square input edge in pixels.
const DefaultInputSize = 1024

// letterboxGray is the constant fill for the pad region.
const letterboxGray = 114

// ErrInvalidInput is returned for zero-area input images.
var ErrInvalidInput = errors.New("invalid input image")

// Info records how an image was fitted into the square model input. Scale
// is min(size/w, size/h); PadX and PadY are the letterbox margins.
type Info struct {
	Scale float64
	PadX  int
	PadY  int
	OrigW int
	OrigH int
}

// Tensor is a channel-first (C,H,W) float32 buffer normalized to [0,1].
type Tensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// Letterbox resizes the image to fit within a size x size square preserving
// aspect ratio, pads the remainder with constant gray, and returns the
// normalized CHW tensor together with the fit parameters. Alpha is dropped.
func Letterbox(img image.Image, size int) (*Tensor, Info, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, Info{}, ErrInvalidInput
	}

	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	newW := int(math.Round(float64(w) * scale))
	newH := int(math.Round(float64(h) * scale))
	padX := (size - newW) / 2
	padY := (size - newH) / 2

	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	gray := color.NRGBA{R: letterboxGray, G: letterboxGray, B: letterboxGray, A: 255}
	for i := 0; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = gray.R
		canvas.Pix[i+1] = gray.G
		canvas.Pix[i+2] = gray.B
		canvas.Pix[i+3] = gray.A
	}

	target := image.Rect(padX, padY, padX+newW, padY+newH)
	xdraw.CatmullRom.Scale(canvas, target, img, bounds, xdraw.Src, nil)

	tensor := &Tensor{
		Data:     make([]float32, 3*size*size),
		Channels: 3,
		Height:   size,
		Width:    size,
	}
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := canvas.PixOffset(x, y)
			idx := y*size + x
			tensor.Data[idx] = float32(canvas.Pix[off]) / 255
			tensor.Data[plane+idx] = float32(canvas.Pix[off+1]) / 255
			tensor.Data[2*plane+idx] = float32(canvas.Pix[off+2]) / 255
		}
	}

	info := Info{Scale: scale, PadX: padX, PadY: padY, OrigW: w, OrigH: h}
	return tensor, info, nil
}
