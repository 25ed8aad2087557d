// Package progress defines the callback type used to report long-running
// pipeline phases back to the host application.
package progress

// Sink receives coarse progress updates: a phase label and a 0-100 percent.
// Implementations must be cheap; sinks are invoked from worker goroutines.
type Sink func(phase string, percent int)

// Discard is a Sink that drops all updates.
func Discard(string, int) {}

// Report invokes the sink if it is non-nil.
func Report(s Sink, phase string, percent int) {
	if s != nil {
		s(phase, percent)
	}
}
