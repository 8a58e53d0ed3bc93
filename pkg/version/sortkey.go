package version

import (
	"fmt"
	"strings"
)

// releaseSegmentWidth is the zero-padding width applied to each numeric
// release segment so that lexicographic string comparison agrees with
// numeric comparison up to four-digit segments, matching the teacher's
// source (`get_version_sorting_string`) which pads to width 4.
const releaseSegmentWidth = 4

// SortKey derives a lexicographically-sortable string from a version,
// grounded on db/models/plugins.py's get_version_sorting_string: zero-pad
// each release segment, prefix the epoch, and append pre/post/dev/local
// suffixes in that fixed order. Keys of plain release versions (segments up
// to four digits) order the way PEP-440 does, except that trailing zero
// segments count ("1.2" and "1.2.0" get different keys). A suffixed key sorts
// after its base release's key, so a pre-release or dev release sorts after
// its final release. Non-conforming versions fall back to the raw string.
func SortKey(raw string) string {
	v, err := Parse(raw)
	if err != nil || !v.valid {
		return raw
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%02d!", v.Epoch)

	for i, seg := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%0*d", releaseSegmentWidth, seg)
	}

	if v.Pre != "" {
		b.WriteString(v.Pre)
	}
	if v.Post >= 0 {
		fmt.Fprintf(&b, ".post%d", v.Post)
	}
	if v.Dev >= 0 {
		fmt.Fprintf(&b, ".dev%d", v.Dev)
	}
	if v.Local != "" {
		b.WriteByte('+')
		b.WriteString(v.Local)
	}

	return b.String()
}
