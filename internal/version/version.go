// Package version carries the build identity stamped in at release time.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set via ldflags at build time:
//
//	go build -ldflags="-X github.com/openkairo/growdeck/internal/version.Version=v1.2.3 \
//	                   -X github.com/openkairo/growdeck/internal/version.Commit=abc123"
//
// When unset, values are derived from the module's VCS build info, with a
// dev timestamp as the final fallback.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if Commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if settings["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Commit = rev
		}
	}

	// Build info has no tags, so a dev version from the commit time is
	// the best available.
	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the full version string including commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
