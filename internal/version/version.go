// Package version reports how the gameboii binary was built
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags "-X gameboii/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string   `json:"version"`
	GitCommit string   `json:"git_commit"`
	BuildTime string   `json:"build_time"`
	Modified  bool     `json:"modified"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Tags      []string `json:"tags"`
}

// GetBuildInfo returns the ldflags values, filled in from the module's VCS
// stamp where they were not set
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				info.BuildTime = setting.Value
			}
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		case "-tags":
			info.Tags = strings.Split(setting.Value, ",")
		}
	}
	return info
}

// GetVersion returns a short version string
func GetVersion() string {
	info := GetBuildInfo()
	if info.Version == "dev" && len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
		v := "dev-" + info.GitCommit[:7]
		if info.Modified {
			v += "+dirty"
		}
		return v
	}
	return info.Version
}

// Print writes the build information, one field per line
func Print(w io.Writer) {
	info := GetBuildInfo()
	fmt.Fprintf(w, "gameboii %s\n", GetVersion())
	fmt.Fprintf(w, "Git Commit:  %s\n", info.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:    %s\n", info.Platform)
	if len(info.Tags) > 0 {
		fmt.Fprintf(w, "Build Tags:  %s\n", strings.Join(info.Tags, " "))
	}
}
