package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grain-tracer/internal/mask"
)

func TestMaskPNGRoundTrip(t *testing.T) {
	m := mask.NewBinary(37, 21)
	m.FillRect(3, 4, 17, 12)
	m.Set(36, 20, 1)

	data, err := EncodeMaskPNG(m)
	require.NoError(t, err)

	got, err := DecodeMaskPNG(data)
	require.NoError(t, err)
	assert.Equal(t, m.Width, got.Width)
	assert.Equal(t, m.Height, got.Height)
	assert.Equal(t, m.Pix, got.Pix)
}

func TestDecodeMaskPNGThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 127})
	img.SetGray(1, 0, color.Gray{Y: 128})
	img.SetGray(2, 0, color.Gray{Y: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	m, err := DecodeMaskPNG(buf.Bytes())
	require.NoError(t, err)
	assert.EqualValues(t, 0, m.At(0, 0))
	assert.EqualValues(t, 1, m.At(1, 0))
	assert.EqualValues(t, 1, m.At(2, 0))
}

func TestLoadAndDecode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}

	path := filepath.Join(t.TempDir(), "sample.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), loaded.Bounds())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, loaded.Bounds(), decoded.Bounds())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestSaveJPEG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	path := filepath.Join(t.TempDir(), "out.jpg")
	require.NoError(t, SaveJPEG(img, path, 85))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), loaded.Bounds())
}
