package ml

import "errors"

var (
	// ErrInvalidInput indicates a zero-area image or a model whose tensor
	// shapes don't match the fixed contract.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelUnavailable indicates the weights file is missing or
	// unreadable; surfaced before inference is attempted.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInferenceFailure indicates a runtime error during model
	// execution. Terminal for that request only; the session stays loaded.
	ErrInferenceFailure = errors.New("inference failure")
)
