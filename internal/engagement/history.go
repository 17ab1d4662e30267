package engagement

import "slices"

// versionHistory lists versions shipped before the current counter layout,
// newest first. Any stored count for one of them marks the installation as
// used. The list only grows; it is independent of engage.Version.
var versionHistory = []string{
	"2.3.1",
	"2.3.0",
	"2.2.0",
	"2.1.2",
	"2.1.1",
	"2.1.0",
	"2.0.0",
	"1.9.1",
	"1.9.0",
	"1.8.0",
	"1.7.2",
	"1.7.1",
	"1.7.0",
	"1.6.0",
	"1.5.0",
	"1.4.0",
	"1.3.0",
	"1.2.0",
	"1.1.0",
	"1.0.0",
}

// VersionHistory returns a copy of the historical version table.
func VersionHistory() []string {
	return slices.Clone(versionHistory)
}
