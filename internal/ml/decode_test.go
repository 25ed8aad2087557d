package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grain-tracer/internal/preprocess"
)

// buildOutput assembles a feature-major detection tensor from candidate
// rows of the form [cx cy w h score coeffs...] with C=1.
func buildOutput(rows [][]float32, protoH, protoW int) *RawOutput {
	numFeatures := boxFeatures + 1 + NumMaskCoeffs
	n := len(rows)
	det := make([]float32, numFeatures*n)
	for i, row := range rows {
		for f := 0; f < numFeatures; f++ {
			var v float32
			if f < len(row) {
				v = row[f]
			}
			det[f*n+i] = v
		}
	}
	return &RawOutput{
		Detections: det,
		DetDims:    [3]int{1, numFeatures, n},
		Prototypes: make([]float32, NumMaskCoeffs*protoH*protoW),
		ProtoDims:  [4]int{1, NumMaskCoeffs, protoH, protoW},
	}
}

func noPadInfo() preprocess.Info {
	return preprocess.Info{Scale: 1, OrigW: 1024, OrigH: 1024}
}

func TestDecodeFiltersByConfidence(t *testing.T) {
	out := buildOutput([][]float32{
		{500, 500, 100, 80, 0.9},
		{300, 300, 50, 50, 0.2},
	}, 256, 256)

	candidates := DecodeCandidates(out, noPadInfo(), 1024, 0.4)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.9, candidates[0].Confidence, 1e-6)
}

func TestDecodeConvertsCenterToCorner(t *testing.T) {
	out := buildOutput([][]float32{{500, 400, 100, 80, 0.9}}, 256, 256)

	candidates := DecodeCandidates(out, noPadInfo(), 1024, 0.4)
	require.Len(t, candidates, 1)

	box := candidates[0].Box
	assert.InDelta(t, 450.0, box.X, 1e-6)
	assert.InDelta(t, 360.0, box.Y, 1e-6)
	assert.InDelta(t, 100.0, box.Width, 1e-6)
	assert.InDelta(t, 80.0, box.Height, 1e-6)
}

func TestDecodeSuppressesPaddingBorder(t *testing.T) {
	// Letterboxed portrait: 112px pad left and right.
	info := preprocess.Info{Scale: 1024.0 / 600.0, PadX: 112, PadY: 0, OrigW: 470, OrigH: 600}

	out := buildOutput([][]float32{
		{120, 500, 40, 40, 0.9}, // center inside pad+margin band
		{500, 500, 40, 40, 0.9}, // well inside the active region
	}, 256, 256)

	candidates := DecodeCandidates(out, info, 1024, 0.4)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 480.0, candidates[0].Box.X, 1e-6)
}

func TestDecodeExtractsCoefficients(t *testing.T) {
	row := []float32{500, 500, 100, 100, 0.8}
	for m := 0; m < NumMaskCoeffs; m++ {
		row = append(row, float32(m))
	}
	out := buildOutput([][]float32{row}, 256, 256)

	candidates := DecodeCandidates(out, noPadInfo(), 1024, 0.4)
	require.Len(t, candidates, 1)
	require.Len(t, candidates[0].Coeffs, NumMaskCoeffs)
	assert.EqualValues(t, 31, candidates[0].Coeffs[31])
}

func TestRawOutputValidate(t *testing.T) {
	out := buildOutput([][]float32{{1, 1, 1, 1, 0.5}}, 256, 256)
	assert.NoError(t, out.validate())

	bad := *out
	bad.DetDims[1] = boxFeatures + NumMaskCoeffs // C = 0
	assert.ErrorIs(t, bad.validate(), ErrInvalidInput)

	short := *out
	short.Prototypes = short.Prototypes[:10]
	assert.ErrorIs(t, short.validate(), ErrInvalidInput)
}
