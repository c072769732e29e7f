package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// These are variables so that they can be set during the build time.
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

// BaseVersion returns the major and minor part of BuildVersion with
// a "v" prefix, or BuildDate when it is not a semantic version.
func BaseVersion() string {
	v, err := semver.NewVersion(BuildVersion)
	if err != nil {
		return BuildDate
	}

	return fmt.Sprintf("v%d.%d", v.Major(), v.Minor())
}

// String describes the build of the named program.
func String(name string) string {
	return fmt.Sprintf("%s %s (%s) on %s", name, BuildVersion, Commit, BuildDate)
}
