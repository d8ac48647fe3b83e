// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of stackscan.
	Version = "dev"
	// Commit holds the current version commit of stackscan.
	Commit = "none"
	// BuildDate holds the build date of stackscan.
	BuildDate = "unknown"
	// StartDate holds the process start time.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("stackscan %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	}
}

// Uptime reports how long the process has been running.
func Uptime() time.Duration {
	return time.Since(StartDate)
}

// IsRelease reports whether Version is a semantic version without a
// prerelease suffix. Development builds return false.
func IsRelease() bool {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return false
	}
	return v.Prerelease() == ""
}
