// Package version carries the build identity stamped into the binary via
// -ldflags "-X github.com/tasknest/go-task-export/internal/version.Version=...".
package version

import "runtime"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info is the resolved build identity of the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	Go        string
}

// Get returns the stamped build metadata plus the Go runtime that built
// the binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		Go:        runtime.Version(),
	}
}
