// Package ml implements the learned instance segmenter: a fixed-shape
// box+mask-coefficient model is executed through a thin runtime adapter,
// then decoded, filtered with NMS, and expanded into per-detection binary
// masks from shared prototypes. Decode, NMS, and mask reconstruction are
// pure functions over plain float32 buffers so the runtime backend can be
// swapped without touching them.
package ml

import (
	"fmt"
	"os"
	"unsafe"

	"gocv.io/x/gocv"

	"grain-tracer/internal/preprocess"
)

// Fixed model contract, matching the 1024x1024 static ONNX export.
const (
	// NumMaskCoeffs is the number of mask coefficients per detection and
	// the number of shared prototype masks.
	NumMaskCoeffs = 32
	// boxFeatures is the leading cx,cy,w,h block of each candidate.
	boxFeatures = 4

	detectionsLayer = "output0"
	prototypesLayer = "output1"
)

// RawOutput carries the two raw model outputs as flat float32 buffers.
// Detections is [1, 4+C+32, N] feature-major; Prototypes is [1, 32, Hm, Wm].
type RawOutput struct {
	Detections []float32
	DetDims    [3]int
	Prototypes []float32
	ProtoDims  [4]int
}

// NumClasses returns C from the detection tensor shape.
func (r *RawOutput) NumClasses() int {
	return r.DetDims[1] - boxFeatures - NumMaskCoeffs
}

// validate checks the output shapes against the fixed contract.
func (r *RawOutput) validate() error {
	if r.NumClasses() < 1 {
		return fmt.Errorf("%w: detection tensor has %d features, need at least %d",
			ErrInvalidInput, r.DetDims[1], boxFeatures+NumMaskCoeffs+1)
	}
	if r.ProtoDims[1] != NumMaskCoeffs {
		return fmt.Errorf("%w: prototype tensor has %d channels, want %d",
			ErrInvalidInput, r.ProtoDims[1], NumMaskCoeffs)
	}
	if len(r.Detections) != r.DetDims[0]*r.DetDims[1]*r.DetDims[2] ||
		len(r.Prototypes) != r.ProtoDims[0]*r.ProtoDims[1]*r.ProtoDims[2]*r.ProtoDims[3] {
		return fmt.Errorf("%w: tensor buffer sizes do not match declared dims", ErrInvalidInput)
	}
	return nil
}

// Runtime executes the segmentation model on a preprocessed input tensor.
// One in-flight Run per runtime is a hard precondition.
type Runtime interface {
	Run(input *preprocess.Tensor) (*RawOutput, error)
	Close() error
}

// dnnRuntime runs the ONNX graph through OpenCV's DNN module.
type dnnRuntime struct {
	net gocv.Net
}

// OpenRuntime loads the ONNX weights file into an inference session.
func OpenRuntime(modelPath string) (Runtime, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, modelPath)
	}
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to parse %s", ErrModelUnavailable, modelPath)
	}
	return &dnnRuntime{net: net}, nil
}

func (r *dnnRuntime) Run(input *preprocess.Tensor) (*RawOutput, error) {
	sizes := []int{1, input.Channels, input.Height, input.Width}
	blob, err := gocv.NewMatWithSizesFromBytes(sizes, gocv.MatTypeCV32F, float32Bytes(input.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}
	defer blob.Close()

	r.net.SetInput(blob, "")
	outputs := r.net.ForwardLayers([]string{detectionsLayer, prototypesLayer})
	if len(outputs) != 2 {
		return nil, fmt.Errorf("%w: got %d output layers, want 2", ErrInferenceFailure, len(outputs))
	}
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	detDims := outputs[0].Size()
	protoDims := outputs[1].Size()
	if len(detDims) != 3 || len(protoDims) != 4 {
		return nil, fmt.Errorf("%w: unexpected output ranks %d/%d", ErrInvalidInput, len(detDims), len(protoDims))
	}

	det, err := outputs[0].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}
	proto, err := outputs[1].DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}

	out := &RawOutput{
		Detections: append([]float32(nil), det...),
		DetDims:    [3]int{detDims[0], detDims[1], detDims[2]},
		Prototypes: append([]float32(nil), proto...),
		ProtoDims:  [4]int{protoDims[0], protoDims[1], protoDims[2], protoDims[3]},
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dnnRuntime) Close() error {
	return r.net.Close()
}

func float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
