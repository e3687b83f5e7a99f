package buildconfig

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// VersionInfo returns full version information
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"built":      date,
		"go_version": runtime.Version(),
	}
}

// String is the one-line form printed by `marketmind version`.
func String() string {
	return fmt.Sprintf("marketmind %s (commit %s, built %s, %s)", version, commit, date, runtime.Version())
}
