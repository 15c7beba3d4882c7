// Package utils holds small helpers that do not warrant a package of their
// own.
package utils

import (
	"runtime/debug"
)

// Set at link time with
// -ldflags "-X github.com/papercomputeco/playground/pkg/utils.Version=..."
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// Build describes the running binary.
type Build struct {
	Version string
	Sha     string
	Time    string
}

// CurrentBuild returns the link-time values. Values left at their defaults
// are filled from the VCS stamp the go command embeds, when present.
func CurrentBuild() Build {
	b := Build{Version: Version, Sha: Sha, Time: Buildtime}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Sha == "HEAD":
			b.Sha = s.Value
		case s.Key == "vcs.time" && b.Time == "dev":
			b.Time = s.Value
		}
	}
	return b
}
