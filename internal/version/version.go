// Package version reports the build identity of wlanmgr.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at link time, for example:
//
//	go build -ldflags="-X github.com/muurk/wlanmgr/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/wlanmgr/internal/version.Commit=4f1c2ab"
//
// Whatever is left empty is derived from the VCS stamp in the build info.
var (
	Version = ""
	Commit  = ""
)

// BuildTime is the VCS commit time, zero when the binary carries no stamp.
var BuildTime time.Time

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		apply(stamp(info.Settings))
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// vcsStamp is the subset of build settings the version is derived from.
type vcsStamp struct {
	revision string
	modified bool
	time     time.Time
}

func stamp(settings []debug.BuildSetting) vcsStamp {
	var s vcsStamp
	for _, kv := range settings {
		switch kv.Key {
		case "vcs.revision":
			s.revision = kv.Value
		case "vcs.modified":
			s.modified = kv.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, kv.Value); err == nil {
				s.time = t
			}
		}
	}
	return s
}

// apply fills the identity fields that were not set by the linker.
func apply(s vcsStamp) {
	if Commit == "" && s.revision != "" {
		Commit = shortRevision(s.revision, s.modified)
	}
	if Version == "" && !s.time.IsZero() {
		Version = "dev-" + s.time.UTC().Format("20060102")
	}
	BuildTime = s.time
}

func shortRevision(rev string, dirty bool) string {
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

// Full returns the version with its commit, as printed by `wlanmgr version`.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Info is the build identity reported by the diagnostics server.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// Get returns the build identity of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
	}
}
