package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X nodebackup/internal/app/version.buildVersion=...".
var (
	buildVersion = "dev"
	builtAt      = "unknown"
)

type Info struct {
	BuildVersion string `json:"buildVersion"`
	BuiltAt      string `json:"builtAt"`
	Revision     string `json:"revision,omitempty"`
	GoVersion    string `json:"goVersion"`
}

// Get reports the ldflags values plus the VCS revision stamped by the Go
// toolchain, when present.
func Get() Info {
	info := Info{
		BuildVersion: buildVersion,
		BuiltAt:      builtAt,
		GoVersion:    runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" {
				info.Revision = setting.Value
			}
		}
	}
	return info
}
