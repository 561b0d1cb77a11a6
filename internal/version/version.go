// Package version holds the build version string.
package version

// Version is overridden at build time via
// -ldflags "-X github.com/tollgate-ai/tollgate/internal/version.Version=…".
var Version = "dev"
