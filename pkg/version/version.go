// Package version parses PEP-440-style plugin version strings and specifier
// sets. It is adapted from github.com/Masterminds/semver/v3's constraint
// grammar: release-segment comparison, constraint-set parsing, and the
// Compare/Contains shape are kept, with epoch/pre/post/dev/local segments
// and comma-separated multi-operator specifiers layered on top to match the
// PEP-440 syntax plugin self-descriptions actually use.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed PEP-440-ish version: epoch!release{.pre}{.postN}{.devN}{+local}.
type Version struct {
	raw     string
	Epoch   int
	Release []int
	Pre     string // e.g. "a1", "b2", "rc3"; empty if absent
	Post    int    // -1 if absent
	Dev     int    // -1 if absent
	Local   string // local version label after '+'; empty if absent
	valid   bool
}

// versionPattern is deliberately permissive: epoch, dotted release segments,
// an optional pre-release letter+number, optional .postN, optional .devN,
// optional +local.
var versionPattern = regexp.MustCompile(`^(?:(\d+)!)?(\d+(?:\.\d+)*)((?:a|b|rc)\d*)?(?:\.post(\d+))?(?:\.dev(\d+))?(?:\+([0-9A-Za-z.]+))?$`)

// Parse parses a version string. Non-conforming strings return a Version
// with valid=false; callers fall back to raw-string comparison in that case,
// matching the original's LegacyVersion fallback.
func Parse(raw string) (*Version, error) {
	trimmed := strings.TrimSpace(raw)
	m := versionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return &Version{raw: raw, Post: -1, Dev: -1, valid: false}, fmt.Errorf("not a conforming version: %q", raw)
	}

	v := &Version{raw: raw, Post: -1, Dev: -1, valid: true}

	if m[1] != "" {
		epoch, err := strconv.Atoi(m[1])
		if err != nil {
			return &Version{raw: raw, Post: -1, Dev: -1, valid: false}, fmt.Errorf("invalid epoch in %q: %w", raw, err)
		}
		v.Epoch = epoch
	}

	for _, seg := range strings.Split(m[2], ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return &Version{raw: raw, Post: -1, Dev: -1, valid: false}, fmt.Errorf("invalid release segment in %q: %w", raw, err)
		}
		v.Release = append(v.Release, n)
	}

	v.Pre = m[3]

	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil {
			return &Version{raw: raw, Post: -1, Dev: -1, valid: false}, fmt.Errorf("invalid post segment in %q: %w", raw, err)
		}
		v.Post = n
	}

	if m[5] != "" {
		n, err := strconv.Atoi(m[5])
		if err != nil {
			return &Version{raw: raw, Post: -1, Dev: -1, valid: false}, fmt.Errorf("invalid dev segment in %q: %w", raw, err)
		}
		v.Dev = n
	}

	v.Local = m[6]

	return v, nil
}

// Valid reports whether the version conformed to the PEP-440-ish grammar.
func (v *Version) Valid() bool { return v.valid }

// String returns the original raw version string.
func (v *Version) String() string { return v.raw }

// releaseAt returns the i-th release segment, or 0 if the version is shorter.
func (v *Version) releaseAt(i int) int {
	if i < len(v.Release) {
		return v.Release[i]
	}
	return 0
}

// Compare returns -1, 0, or 1 comparing v to other: epoch, then release
// segments, then dev (a version with a dev segment sorts before one without;
// lower dev numbers first), then pre-release (a version with a pre-release
// sorts before one without; identifiers compared as strings), then post
// (absence sorts before presence). Local labels are ignored. This agrees with
// PEP-440 ordering when a version carries at most one of the dev, pre and post
// segments; because dev is compared first, combinations differ from PEP-440
// (1.0.post1.dev1 sorts before 1.0, and 1.0a1.dev1 before 1.0.dev2).
func (v *Version) Compare(other *Version) int {
	if v.Epoch != other.Epoch {
		return intCompare(v.Epoch, other.Epoch)
	}

	n := len(v.Release)
	if len(other.Release) > n {
		n = len(other.Release)
	}
	for i := 0; i < n; i++ {
		if c := intCompare(v.releaseAt(i), other.releaseAt(i)); c != 0 {
			return c
		}
	}

	// Dev releases sort before the corresponding final release.
	vDev, oDev := v.Dev >= 0, other.Dev >= 0
	if vDev != oDev {
		if vDev {
			return -1
		}
		return 1
	}
	if vDev && oDev {
		if c := intCompare(v.Dev, other.Dev); c != 0 {
			return c
		}
	}

	// Pre-releases sort before the final release.
	vPre, oPre := v.Pre != "", other.Pre != ""
	if vPre != oPre {
		if vPre {
			return -1
		}
		return 1
	}
	if vPre && oPre {
		if c := strings.Compare(v.Pre, other.Pre); c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
	}

	// Post-releases sort after the base release.
	vPost, oPost := v.Post >= 0, other.Post >= 0
	if vPost != oPost {
		if vPost {
			return 1
		}
		return -1
	}
	if vPost && oPost {
		if c := intCompare(v.Post, other.Post); c != 0 {
			return c
		}
	}

	return 0
}

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
