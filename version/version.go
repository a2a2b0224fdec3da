// Package version provides build version information embedding.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GetVersionInfo returns version information, falling back to VCS build
// metadata when ldflags were not provided.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = buildInfo.GoVersion
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
					if len(info.GitCommit) > 7 {
						info.GitCommit = info.GitCommit[:7]
					}
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = setting.Value
				}
			}
		}
	}

	return info
}

// GetShortVersion returns a short version string.
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit != "" {
		return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
	}
	return info.Version
}
