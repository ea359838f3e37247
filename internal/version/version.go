// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent is sent to every content platform. Reddit rejects generic agents.
func UserAgent() string {
	return "sigdex/" + Version + " (+https://github.com/kailas-cloud/sigdex)"
}
