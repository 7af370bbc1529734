// Package version reports what build is running
package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X tagtime/internal/core/version.version=v1.2.0 ..."
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo is served at /meta/version and printed by `tagtime version`
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

var readBuildInfo = debug.ReadBuildInfo

// Info merges the linker values with the vcs stamp go build embeds
func Info() BuildInfo {
	bi := BuildInfo{Service: "tagtime", Version: version, Commit: commit, Date: date, Go: runtime.Version()}
	if info, ok := readBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "":
				bi.Date = s.Value
			}
		}
	}
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}

// String is the one line form
func (b BuildInfo) String() string {
	c := b.Commit
	if len(c) > 12 {
		c = c[:12]
	}
	return b.Service + " " + b.Version + " (" + c + ", " + b.Date + ", " + b.Go + ")"
}
