package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// specifierOp is one comparison operator in a PEP-440 specifier.
type specifierOp string

const (
	opEQ  specifierOp = "=="
	opNE  specifierOp = "!="
	opLT  specifierOp = "<"
	opLTE specifierOp = "<="
	opGT  specifierOp = ">"
	opGTE specifierOp = ">="
	opCmp specifierOp = "~=" // compatible release
)

// clause is a single "<op><version>" term.
type clause struct {
	op  specifierOp
	ver *Version
	raw string
}

// SpecifierSet is a comma-separated set of version clauses, all of which
// must hold for Contains to return true — the Go analogue of Python's
// packaging.specifiers.SpecifierSet, adapted onto this package's Version
// comparison the way Masterminds/semver/v3's Constraints wraps its own
// Version type.
type SpecifierSet struct {
	clauses []clause
	// semverRange handles the caret/tilde/hyphen range syntaxes PEP-440 has
	// no grammar for but semver-ecosystem plugins declare anyway ("^1.2",
	// "~2.0", "1.2 - 1.4"); mutually exclusive with clauses.
	semverRange *semver.Constraints
	raw         string
}

// isSemverRange detects the range syntaxes only semver constraints use:
// caret, standalone tilde and hyphen ranges. x-wildcards such as "1.2.x" are
// not detected and so fail to parse as PEP-440 clauses.
func isSemverRange(s string) bool {
	if strings.Contains(s, "^") || strings.Contains(s, " - ") {
		return true
	}
	if strings.Contains(s, "~") && !strings.Contains(s, "~=") {
		return true
	}
	return false
}

// orderedOps lists operators longest-prefix-first so that, e.g., ">=" is not
// mistakenly parsed as ">" followed by a leading "=".
var orderedOps = []specifierOp{opCmp, opEQ, opNE, opLTE, opGTE, opLT, opGT}

// ParseSpecifierSet parses a comma-separated PEP-440 specifier string such
// as ">=1.0,<2.0" or "==1.2.3". An empty string matches everything.
func ParseSpecifierSet(raw string) (*SpecifierSet, error) {
	s := &SpecifierSet{raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return s, nil
	}

	if isSemverRange(trimmed) {
		constraints, err := semver.NewConstraint(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid specifier %q: %w", raw, err)
		}
		s.semverRange = constraints
		return s, nil
	}

	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var op specifierOp
		var rest string
		for _, candidate := range orderedOps {
			if strings.HasPrefix(part, string(candidate)) {
				op = candidate
				rest = strings.TrimSpace(strings.TrimPrefix(part, string(candidate)))
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("invalid specifier clause %q in %q", part, raw)
		}
		if rest == "" {
			return nil, fmt.Errorf("missing version in specifier clause %q", part)
		}

		ver, err := Parse(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q in specifier %q: %w", rest, raw, err)
		}

		s.clauses = append(s.clauses, clause{op: op, ver: ver, raw: part})
	}

	return s, nil
}

// String returns the original specifier text.
func (s *SpecifierSet) String() string { return s.raw }

// Contains reports whether the given version string satisfies every clause
// in the set. A version that fails to parse never satisfies a non-empty set.
func (s *SpecifierSet) Contains(versionStr string) bool {
	if s.semverRange != nil {
		sv, err := semver.NewVersion(versionStr)
		if err != nil {
			return false
		}
		return s.semverRange.Check(sv)
	}

	if len(s.clauses) == 0 {
		return true
	}

	v, err := Parse(versionStr)
	if err != nil || !v.valid {
		return false
	}

	for _, c := range s.clauses {
		if !clauseMatches(c, v) {
			return false
		}
	}
	return true
}

func clauseMatches(c clause, v *Version) bool {
	cmp := v.Compare(c.ver)
	switch c.op {
	case opEQ:
		return cmp == 0
	case opNE:
		return cmp != 0
	case opLT:
		return cmp < 0
	case opLTE:
		return cmp <= 0
	case opGT:
		return cmp > 0
	case opGTE:
		return cmp >= 0
	case opCmp:
		// ~=X.Y(.Z) means >= X.Y(.Z), == X.Y.* (compatible release: the
		// release prefix up to but excluding the last segment must match).
		if cmp < 0 {
			return false
		}
		if len(c.ver.Release) < 2 {
			return true
		}
		prefixLen := len(c.ver.Release) - 1
		for i := 0; i < prefixLen; i++ {
			if v.releaseAt(i) != c.ver.releaseAt(i) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
