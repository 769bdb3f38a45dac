// Package version provides build version information for docdex.
package version

import (
	"fmt"
	"runtime"
)

// Build information. Populated at build time via -ldflags.
var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit hash of the build.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
	// GoVersion is the Go runtime version used for the build.
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string.
func String() string {
	return fmt.Sprintf("docdex %s (commit: %s, built: %s, go: %s)", Version, Commit, Date, GoVersion)
}

// Short returns just the version number.
func Short() string {
	return Version
}
