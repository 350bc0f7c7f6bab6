package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Name of the daemon, used for logger groups and directory naming.
	Name = "crashd"

	// Product line written into every crash report's version field.
	Product = "Custom Fortress 2 Server"

	// Placeholder for build variables left empty by the linker.
	defaultUndefined = "(undefined)"

	// Placeholder version for builds outside the release pipeline.
	defaultLocalBuild = "(local)"

	// Branch that produces unsuffixed release versions.
	mainBranch = "main"
)

var (
	version   = "" // Release number, e.g. "1.4.0"
	stage     = "" // Branch the build came from, e.g. "main"
	gitCommit = "" // Commit hash the build came from

	rawQuiet          = "false" // Default for quiet logging
	rawDebug          = "false" // Default for debug logging
	rawVerbose        = "false" // Default for verbose logging
	rawCrashReporting = "true"  // Default for the crash reporting toggle
)

// Returns the release number without any "v" prefix, or "(undefined)".
func Version() string {
	v := strings.ToLower(strings.TrimSpace(version))
	if v == "" {
		return defaultUndefined
	}
	return strings.TrimPrefix(v, "v")
}

// Returns the branch the build came from, or "(undefined)".
func Stage() string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return defaultUndefined
	}
	return strings.ToLower(s)
}

// Returns the commit hash the build came from, or "(undefined)".
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return defaultUndefined
	}
	return c
}

// Returns true unless all three release variables were set by the linker.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" ||
		strings.TrimSpace(gitCommit) == "" ||
		strings.TrimSpace(stage) == ""
}

// Returns "<version>+<stage> <commit> [<os>/<arch>]", or "(local)".
//
// The stage suffix is omitted for builds from the main branch.
func VersionString() string {
	if IsLocal() {
		return defaultLocalBuild
	}

	s := ""
	if st := Stage(); st != mainBranch {
		s = "+" + st
	}

	return fmt.Sprintf("%s%s %s [%s/%s]", Version(), s, GitCommit(), runtime.GOOS, runtime.GOARCH)
}

// Returns the build identifier recorded in crash reports.
//
//	Custom Fortress 2 Server 1.4.0 a1b2c3d4 [linux/amd64]
func BuildID() string {
	return Product + " " + VersionString()
}
