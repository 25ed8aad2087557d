// Package version carries build-time identification, stamped via -ldflags.
package version

import "fmt"

var (
	// Version is the semantic release version.
	Version = "0.1.0"

	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String renders the full build identification line.
func String() string {
	return fmt.Sprintf("grain-tracer %s (%s, built %s)", Version, GitCommit, BuildTime)
}
