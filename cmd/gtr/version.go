package main

import (
	"runtime/debug"
	"strings"
)

// version is stamped with -ldflags "-X main.version=v1.2.3" for releases.
var version = "dev"

var readBuildInfo = debug.ReadBuildInfo

// currentVersion prefers the stamped version, then the module version from a
// `go install`, and finally "dev" annotated with the VCS revision of a local
// build (dev+abc1234, dev+abc1234-dirty).
func currentVersion() string {
	if v := strings.TrimSpace(version); v != "" && v != "dev" {
		return v
	}
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
		return mv
	}
	return "dev" + revisionSuffix(info.Settings)
}

func revisionSuffix(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return ""
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified {
		return "+" + revision + "-dirty"
	}
	return "+" + revision
}
