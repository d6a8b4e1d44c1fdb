// Package version reports the build's version and VCS revision.
package version

import (
	"runtime"
	"runtime/debug"
)

// version is set with -ldflags "-X github.com/wharflab/forgecheck/internal/version.version=...".
var version = "dev"

// Version returns the release version. Development builds from a checkout
// carry the short commit, e.g. "dev (1a2b3c4d5e6f)".
func Version() string {
	if c := commit(); c != "" && version == "dev" {
		return version + " (" + c + ")"
	}
	return version
}

// Info is the machine-readable form printed by `forgecheck version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo collects the version and build settings.
func GetInfo() Info {
	info := Info{
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	for _, s := range buildSettings() {
		switch s.Key {
		case "vcs.revision":
			info.Commit = shortCommit(s.Value)
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func commit() string {
	for _, s := range buildSettings() {
		if s.Key == "vcs.revision" {
			return shortCommit(s.Value)
		}
	}
	return ""
}

func buildSettings() []debug.BuildSetting {
	if bi, ok := debug.ReadBuildInfo(); ok {
		return bi.Settings
	}
	return nil
}

func shortCommit(rev string) string {
	return rev[:min(len(rev), 12)]
}
