// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	GitCommit = "unknown"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// buildInfo is swapped in tests.
var buildInfo = debug.ReadBuildInfo

// stamp is the commit and dirty marker of the running binary.
type stamp struct {
	commit string
	dirty  bool
	time   string
}

func currentStamp() stamp {
	current := stamp{commit: GitCommit, time: BuildTime}
	if GitCommit != "unknown" {
		return current
	}
	info, ok := buildInfo()
	if !ok {
		return current
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			current.commit = setting.Value
			if len(current.commit) > 12 {
				current.commit = current.commit[:12]
			}
		case "vcs.modified":
			current.dirty = setting.Value == "true"
		case "vcs.time":
			if BuildTime == "unknown" {
				current.time = setting.Value
			}
		}
	}
	return current
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	current := currentStamp()
	dirty := ""
	if current.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, current.commit, dirty, current.time)
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
