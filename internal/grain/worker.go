package grain

import (
	"context"
	"image"

	"grain-tracer/internal/classic"
	"grain-tracer/internal/progress"
)

// ClassicRequest bundles the inputs for an asynchronous classic-path run.
type ClassicRequest struct {
	Image    image.Image
	Settings classic.Settings
	Progress progress.Sink
}

// Outcome is delivered on the result channel of an async detection.
type Outcome struct {
	Grains []Grain
	Err    error
}

// DetectClassicAsync runs the classic segmenter and assembler on a worker
// goroutine. The pipeline has no side effects beyond its return value, so
// callers may abandon the run by cancelling the context or discarding the
// channel; the goroutine always terminates.
func DetectClassicAsync(ctx context.Context, seg *classic.Segmenter, asm *Assembler, req ClassicRequest) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)

		if err := ctx.Err(); err != nil {
			out <- Outcome{Err: err}
			return
		}

		result, err := seg.Segment(req.Image, req.Settings, req.Progress)
		if err != nil {
			out <- Outcome{Err: err}
			return
		}

		if err := ctx.Err(); err != nil {
			out <- Outcome{Err: err}
			return
		}

		out <- Outcome{Grains: asm.FromClassic(result)}
	}()
	return out
}
