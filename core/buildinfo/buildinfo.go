// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/polbot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/m3rciful/polbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/polbot/core/buildinfo.Date=2026-01-01T12:00:00Z'
package buildinfo

var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source commit.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String formats the metadata for the startup line and -version flag.
func String() string {
	if Date == "" {
		return Version + " (" + Commit + ")"
	}
	return Version + " (" + Commit + ", " + Date + ")"
}
