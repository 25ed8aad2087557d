package ml

import (
	"fmt"

	"github.com/rs/zerolog"

	"grain-tracer/internal/mask"
	"grain-tracer/internal/preprocess"
	"grain-tracer/pkg/geometry"
)

// Params controls detection decoding and filtering.
type Params struct {
	ConfidenceThreshold float64
	IoUThreshold        float64
	MinAreaPercent      float64 // minimum grain area as percent of image area
	MaxDetections       int
}

// DefaultParams returns the thresholds used by the application defaults.
func DefaultParams() Params {
	return Params{
		ConfidenceThreshold: 0.4,
		IoUThreshold:        0.7,
		MinAreaPercent:      0.05,
		MaxDetections:       300,
	}
}

// Detection is one surviving instance: a binary mask in the prototype
// grid's own resolution, plus box, confidence, and original-image area.
type Detection struct {
	Mask       *mask.Binary
	Box        geometry.Rect // model input space
	Confidence float64
	Area       float64 // original-image px^2
	GridW      int
	GridH      int
}

// Segmenter runs the learned model and post-processes its output. One
// in-flight Detect per session is a hard precondition; the segmenter holds
// no state between calls.
type Segmenter struct {
	session *Session
	Log     zerolog.Logger
}

// NewSegmenter wraps a loaded session.
func NewSegmenter(session *Session, log zerolog.Logger) *Segmenter {
	return &Segmenter{session: session, Log: log}
}

// Detect runs inference on a preprocessed tensor and returns the decoded,
// NMS-filtered, mask-reconstructed detections. A model that finds nothing
// yields an empty slice, not an error.
func (s *Segmenter) Detect(tensor *preprocess.Tensor, info preprocess.Info, params Params) ([]Detection, error) {
	if s.session == nil || s.session.runtime == nil {
		return nil, ErrModelUnavailable
	}
	if info.OrigW <= 0 || info.OrigH <= 0 {
		return nil, fmt.Errorf("%w: zero-area image", ErrInvalidInput)
	}

	out, err := s.session.runtime.Run(tensor)
	if err != nil {
		return nil, err
	}

	inputSize := tensor.Width
	candidates := DecodeCandidates(out, info, inputSize, params.ConfidenceThreshold)
	kept := NonMaxSuppression(candidates, params.IoUThreshold, params.MaxDetections)

	s.Log.Debug().
		Int("raw", out.DetDims[2]).
		Int("candidates", len(candidates)).
		Int("kept", len(kept)).
		Msg("detections decoded")

	gridH := out.ProtoDims[2]
	gridW := out.ProtoDims[3]
	imageArea := float64(info.OrigW) * float64(info.OrigH)
	minArea := params.MinAreaPercent / 100 * imageArea

	detections := make([]Detection, 0, len(kept))
	for _, c := range kept {
		m := ReconstructMask(out, c, inputSize)
		area := MaskAreaInOriginal(m.Popcount(), inputSize, gridW, info.Scale)
		if area < minArea {
			continue
		}
		detections = append(detections, Detection{
			Mask:       m,
			Box:        c.Box,
			Confidence: c.Confidence,
			Area:       area,
			GridW:      gridW,
			GridH:      gridH,
		})
	}
	return detections, nil
}
