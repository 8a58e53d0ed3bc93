package store

import "github.com/qhana/plugin-registry/pkg/version"

// DeriveSortVersion derives the lexicographically-sortable sort_version
// column from a plugin's semantic version string, grounded on
// db/models/plugins.py's get_version_sorting_string: non-conforming
// versions fall back to the raw string (the original's LegacyVersion
// branch), letting order-by-version queries run entirely in SQL without
// server-side re-sorting.
func DeriveSortVersion(rawVersion string) string {
	return version.SortKey(rawVersion)
}
