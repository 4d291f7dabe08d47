// Package version carries the build identity of the mecard binaries.
package version

import "fmt"

// Stamped by the release build with -ldflags "-X".
//
//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build identity shown by the loader CLI.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
