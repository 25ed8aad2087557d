// Package modelstore fetches and caches the segmentation model weights.
// Network retry policy belongs to the caller; a failed download is
// reported, not retried.
package modelstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"grain-tracer/internal/ml"
	"grain-tracer/internal/progress"
)

// Store resolves model weights to a local file path, downloading into the
// cache directory on first use.
type Store struct {
	CacheDir string
	URL      string // optional; empty means the weights must already exist
	Client   *http.Client
	Log      zerolog.Logger
}

// New creates a store over the given cache directory.
func New(cacheDir, url string, log zerolog.Logger) *Store {
	return &Store{
		CacheDir: cacheDir,
		URL:      url,
		Client:   http.DefaultClient,
		Log:      log,
	}
}

// cachePath is where the weights live inside the cache directory.
func (s *Store) cachePath() string {
	name := "model.onnx"
	if s.URL != "" {
		if base := filepath.Base(s.URL); base != "" && base != "." && base != "/" {
			name = base
		}
	}
	return filepath.Join(s.CacheDir, name)
}

// Path returns the local weights path, downloading first if a URL is
// configured and the cache is empty. A missing file with no URL surfaces
// ml.ErrModelUnavailable.
func (s *Store) Path(ctx context.Context, sink progress.Sink) (string, error) {
	path := s.cachePath()
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}
	if s.URL == "" {
		return "", fmt.Errorf("%w: no cached weights at %s", ml.ErrModelUnavailable, path)
	}
	if err := s.download(ctx, path, sink); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) download(ctx context.Context, path string, sink progress.Sink) error {
	s.Log.Info().Str("url", s.URL).Str("path", path).Msg("downloading model weights")
	progress.Report(sink, "download", 0)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download returned %s", ml.ErrModelUnavailable, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}

	// Write to a temp file and rename so a partial download never poses
	// as valid weights.
	tmp, err := os.CreateTemp(filepath.Dir(path), "model-*.part")
	if err != nil {
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if err := copyWithProgress(tmp, resp.Body, resp.ContentLength, sink); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ml.ErrModelUnavailable, err)
	}

	progress.Report(sink, "download", 100)
	s.Log.Info().Str("path", path).Msg("model weights cached")
	return nil
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, sink progress.Sink) error {
	buf := make([]byte, 1<<20)
	var written int64
	lastPercent := -1
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if total > 0 {
				percent := int(written * 100 / total)
				if percent != lastPercent {
					progress.Report(sink, "download", percent)
					lastPercent = percent
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
