// Package version reports how the fab binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X github.com/conneroisu/fab/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version"             yaml:"version"`
	GitCommit string    `json:"git_commit"          yaml:"git_commit"`
	BuildTime time.Time `json:"build_time,omitzero" yaml:"build_time,omitempty"`
	GoVersion string    `json:"go_version"          yaml:"go_version"`
	Platform  string    `json:"platform"            yaml:"platform"`
	Dirty     bool      `json:"dirty,omitempty"     yaml:"dirty,omitempty"`
}

// GetBuildInfo collects ldflags values, falling back to the module's
// embedded VCS settings.
func GetBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "" || info.Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" || info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime.IsZero() {
				info.BuildTime = parseBuildTime(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// GetVersion returns the application version
func GetVersion() string {
	return GetBuildInfo().Version
}

// GetShortVersion returns "<version> (<commit>)" or "dev-<commit>".
func GetShortVersion() string {
	return GetBuildInfo().Short()
}

// Short formats the version for one-line display.
func (b *BuildInfo) Short() string {
	if b.GitCommit == "unknown" || len(b.GitCommit) < 7 {
		return b.Version
	}
	commit := b.GitCommit[:7]
	if b.Version == "dev" {
		return "dev-" + commit
	}
	return fmt.Sprintf("%s (%s)", b.Version, commit)
}

// String formats every field, one per line.
func (b *BuildInfo) String() string {
	lines := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		commit := "Commit: " + b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		lines = append(lines, commit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)
	return strings.Join(lines, "\n")
}

func parseBuildTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
