package types

// Persisted key names. The names are part of the on-disk format and must not
// change between releases.
const (
	// KeyUsageCountPrefix prefixes the per-version usage counter; the full
	// key is KeyUsageCountPrefix + "v" + version.
	KeyUsageCountPrefix = "appUsedCount-"

	KeyUsed               = "appUsed"
	KeySharePromptShownAt = "socialSharingSheetShownIn"
	KeyShareAccepted      = "socialSharingYesButtonPressed"
	KeyShareDeclined      = "socialSharingNoButtonPressed"
	KeyDarkMode           = "isDarkMode"
)

// UsageCountKey returns the usage counter key for version, e.g.
// "appUsedCount-v2.3.0".
func UsageCountKey(version string) string {
	return KeyUsageCountPrefix + "v" + version
}
