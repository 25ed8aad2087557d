package modelstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grain-tracer/internal/ml"
	"grain-tracer/internal/progress"
)

func TestPathUsesCachedWeights(t *testing.T) {
	dir := t.TempDir()
	cached := filepath.Join(dir, "model.onnx")
	require.NoError(t, os.WriteFile(cached, []byte("weights"), 0o644))

	s := New(dir, "", zerolog.Nop())
	path, err := s.Path(context.Background(), progress.Discard)
	require.NoError(t, err)
	assert.Equal(t, cached, path)
}

func TestPathMissingWithoutURL(t *testing.T) {
	s := New(t.TempDir(), "", zerolog.Nop())
	_, err := s.Path(context.Background(), progress.Discard)
	require.ErrorIs(t, err, ml.ErrModelUnavailable)
}

func TestPathDownloadsOnce(t *testing.T) {
	payload := []byte("onnx weights payload")
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := New(dir, srv.URL+"/FastSAM-x.onnx", zerolog.Nop())
	s.Client = srv.Client()

	var phases []string
	sink := func(phase string, percent int) { phases = append(phases, phase) }

	path, err := s.Path(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "FastSAM-x.onnx"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Contains(t, phases, "download")

	// Second call serves from cache without touching the server.
	_, err = s.Path(context.Background(), progress.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestPathDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	s := New(dir, srv.URL+"/model.onnx", zerolog.Nop())
	s.Client = srv.Client()

	_, err := s.Path(context.Background(), progress.Discard)
	require.ErrorIs(t, err, ml.ErrModelUnavailable)

	// No partial file left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
