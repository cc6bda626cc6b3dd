// Package version reports the applist build version.
package version

import "runtime/debug"

// Version is set at build time with -ldflags "-X github.com/rshade/applist/pkg/version.Version=v1.2.3".
//
//nolint:gochecknoglobals // Set by the linker.
var Version = ""

// GetVersion returns the linker-provided version, the module version when
// built with go install, or "dev".
func GetVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
