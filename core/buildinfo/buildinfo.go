// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/menubot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/menubot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/menubot/core/buildinfo.Date=2025-08-30T12:00:00Z'
package buildinfo

import "strings"

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "local"
	// Date is the RFC3339 build time, empty for local builds.
	Date = ""
)

// Summary renders the build metadata on one line, e.g.
// "v1.2.3 (abcdef0, 2025-08-30T12:00:00Z)".
func Summary() string {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteString(" (")
	b.WriteString(Commit)
	if Date != "" {
		b.WriteString(", ")
		b.WriteString(Date)
	}
	b.WriteByte(')')
	return b.String()
}
