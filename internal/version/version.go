package version

import (
	"fmt"
	"runtime"
)

// Version information - set at build time with ldflags
var (
	Version   = "2.0.0"
	Commit    = "dev"
	BuildDate = "unknown"
)

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("puredns version %s\n  go: %s\n  os/arch: %s/%s",
		Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version string
func Short() string {
	return Version
}
