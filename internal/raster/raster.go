// Package raster provides image decode/encode helpers used at the pipeline
// boundary: loading micrographs from disk and shipping binary masks across
// process boundaries as PNG.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"os"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/tiff" // register TIFF decoder

	"grain-tracer/internal/mask"
)

// Load decodes a raster image from disk. PNG, JPEG, GIF, and TIFF are
// supported.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes raster bytes in any registered format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeMaskPNG renders a binary mask as an 8-bit grayscale PNG with
// foreground white, the transport format for cross-process mask handoff.
func EncodeMaskPNG(m *mask.Binary) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMaskPNG reverses EncodeMaskPNG: any pixel above half intensity is
// foreground.
func DecodeMaskPNG(data []byte) (*mask.Binary, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	m := mask.NewBinary(bounds.Dx(), bounds.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			if c.Y >= 128 {
				m.Set(x, y, 1)
			}
		}
	}
	return m, nil
}

// SaveJPEG re-encodes an image to disk as JPEG, used for exporting
// downsampled previews.
func SaveJPEG(img image.Image, path string, quality int) error {
	return imaging.Save(imaging.Clone(img), path, imaging.JPEGQuality(quality))
}
