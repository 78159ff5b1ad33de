// Package buildconfig exposes build metadata injected at link time:
//
//	go build -ldflags "-X github.com/Harshitk-cp/adaptplan/internal/buildconfig.version=v1.2.0 \
//	  -X github.com/Harshitk-cp/adaptplan/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

import "runtime"

var (
	version = "dev"
	commit  = "unknown"
	date    = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo is the build metadata reported by /health.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version":    version,
		"commit":     commit,
		"go_version": runtime.Version(),
	}
	if date != "" {
		info["build_date"] = date
	}
	return info
}
