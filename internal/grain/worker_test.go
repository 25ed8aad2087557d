package grain

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grain-tracer/internal/classic"
)

func TestDetectClassicAsyncCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seg := &classic.Segmenter{Log: zerolog.Nop()}
	asm := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())

	ch := DetectClassicAsync(ctx, seg, asm, ClassicRequest{
		Settings: classic.DefaultSettings(),
	})

	select {
	case outcome := <-ch:
		require.ErrorIs(t, outcome.Err, context.Canceled)
		assert.Nil(t, outcome.Grains)
	case <-time.After(5 * time.Second):
		t.Fatal("no outcome delivered")
	}

	// The channel closes after the single outcome.
	_, open := <-ch
	assert.False(t, open)
}

func TestDetectClassicAsyncRejectsEmptyImage(t *testing.T) {
	seg := &classic.Segmenter{Log: zerolog.Nop()}
	asm := NewAssembler(DefaultAssembleOptions(), zerolog.Nop())

	ch := DetectClassicAsync(context.Background(), seg, asm, ClassicRequest{
		Image:    image.NewRGBA(image.Rect(0, 0, 0, 0)),
		Settings: classic.DefaultSettings(),
	})

	outcome := <-ch
	require.ErrorIs(t, outcome.Err, classic.ErrInvalidInput)
}
