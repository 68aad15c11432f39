package buildconfig

import "fmt"

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/regula/internal/buildconfig.version=v0.3.0
var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// String renders the version for `regula --version`.
func String() string {
	return fmt.Sprintf("%s (%s)", version, commit)
}

// VersionInfo returns full version information for /health.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
