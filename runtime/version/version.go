// Package version reports the build of the running light client binary.
package version

import (
	"fmt"
	"runtime"
)

// Set through linker options, for example
// -ldflags "-X github.com/ComposableFi/composable-sub011/runtime/version.gitTag=v0.1.0".
var (
	gitCommit = "Local build"
	buildDate = "Moments ago"
	gitTag    = "Unknown"
)

// Version returns the version string of this build.
func Version() string {
	return fmt.Sprintf("%s. Built at: %s", BuildData(), buildDate)
}

// BuildData returns the git tag and commit of the current build.
func BuildData() string {
	return fmt.Sprintf("LightClient/%s/%s/%s", gitTag, gitCommit, runtime.Version())
}
