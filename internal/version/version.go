// Package version reports the build of the running binary.
package version

import "fmt"

// Set with -ldflags "-X github.com/kailas-cloud/vsetbrowse/internal/version.Version=...".
//
//nolint:gochecknoglobals // ldflags targets
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build as "version (commit, date)".
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
