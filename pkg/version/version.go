// Package version holds build information injected with -ldflags.
package version

import "runtime"

var (
	// Version is the semantic version.
	Version = "dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"

	// GoVersion is the Go toolchain used for the build.
	GoVersion = runtime.Version()
)
