package ml

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Session owns one loaded inference runtime. Sequential detection requests
// may share a session; overlapping calls against one session are not safe.
type Session struct {
	runtime Runtime
	path    string
}

// Path returns the weights file the session was loaded from.
func (s *Session) Path() string { return s.path }

// Close releases the runtime. The owning Loader forgets the session.
func (s *Session) Close() error {
	if s.runtime == nil {
		return nil
	}
	return s.runtime.Close()
}

// Loader memoizes one session per process. Concurrent callers arriving
// while a load is in flight await the same completion instead of starting
// a second load.
type Loader struct {
	mu      sync.Mutex
	group   singleflight.Group
	session *Session
	Log     zerolog.Logger

	// open is swappable for tests.
	open func(path string) (Runtime, error)
}

// NewLoader creates a loader using the default ONNX runtime backend.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{Log: log, open: OpenRuntime}
}

// Load returns the shared session, loading the weights at most once even
// under concurrent callers. A failed load is not cached; the next call
// retries.
func (l *Loader) Load(modelPath string) (*Session, error) {
	l.mu.Lock()
	if l.session != nil {
		s := l.session
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	v, err, shared := l.group.Do("model", func() (interface{}, error) {
		l.Log.Info().Str("path", modelPath).Msg("loading segmentation model")
		rt, err := l.open(modelPath)
		if err != nil {
			return nil, err
		}
		s := &Session{runtime: rt, path: modelPath}
		l.mu.Lock()
		l.session = s
		l.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.Log.Debug().Msg("joined in-flight model load")
	}
	return v.(*Session), nil
}

// Release closes and forgets the shared session.
func (l *Loader) Release() error {
	l.mu.Lock()
	s := l.session
	l.session = nil
	l.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}
