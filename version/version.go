// Package version reports the version of the module and of the Go toolchain
// it was built with.
package version

import (
	"runtime"
	"strings"
	"sync"
)

const Version = "0.3.0"

var (
	vsnOnce sync.Once
	vsn     string
)

func isDevel(vsn string) bool {
	return strings.Count(vsn, " ") > 2 || strings.HasPrefix(vsn, "devel")
}

// GoVersion reports the Go version, in a format that is consumable by metrics
// tools.
func GoVersion() string {
	vsnOnce.Do(func() {
		vsn = strings.TrimPrefix(runtime.Version(), "go")
	})
	return vsn
}

// DevelGoVersion reports whether the version of Go that compiled or ran this
// module is a development ("tip") version.
func DevelGoVersion() bool {
	return isDevel(GoVersion())
}

// String returns the version line printed by commands of the module, tip
// toolchains are reported as "devel" since their full version string carries
// a commit and a date.
func String(program string) string {
	goVersion := GoVersion()
	if isDevel(goVersion) {
		goVersion = "devel"
	}
	return program + " " + Version + " (go " + goVersion + ")"
}
