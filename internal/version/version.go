package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags "-X github.com/nowen/nowen/internal/version.Version=..."
var (
	Version   = "dev"             // ex: v0.3.0
	Commit    = "none"            // ex: 1f2e3d4
	BuildDate = "unknown"         // ex: 2026-10-01T12:00:00Z
	GoVersion = runtime.Version() // go version
)

// String renders a one-line build description.
func String() string {
	return fmt.Sprintf("nowen %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
