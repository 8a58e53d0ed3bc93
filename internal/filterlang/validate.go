package filterlang

import (
	"fmt"
	"strings"

	"github.com/qhana/plugin-registry/pkg/version"
)

// Validate checks the structural rules from spec §4.3: "and"/"or" values
// must be lists (guaranteed by Parse's JSON shape), and "version" must parse
// as a specifier set.
func Validate(e Expr) error {
	switch e.Kind {
	case KindAnd:
		for _, c := range e.And {
			if err := Validate(c); err != nil {
				return err
			}
		}
	case KindOr:
		for _, c := range e.Or {
			if err := Validate(c); err != nil {
				return err
			}
		}
	case KindNot:
		if e.Not == nil {
			return fmt.Errorf("not expression missing operand")
		}
		return Validate(*e.Not)
	case KindVersion:
		if _, err := version.ParseSpecifierSet(e.Version); err != nil {
			return fmt.Errorf("invalid version specifier %q: %w", e.Version, err)
		}
	}
	return nil
}

// ValidateFilterString parses and validates a tab's raw filter string,
// returning a descriptive error suitable for a 400 response (spec §7,
// testable scenario 6: malformed filter on tab creation is rejected).
func ValidateFilterString(raw string) error {
	expr, err := Parse(raw)
	if err != nil {
		return err
	}
	return Validate(expr)
}

// ValidateTabInvariant enforces spec §3's TemplateTab invariant: a non-empty
// group key implies an empty filter string and a location that does not
// begin with "workspace".
func ValidateTabInvariant(groupKey, filterString, location string) error {
	if groupKey == "" {
		return nil
	}
	if filterString != "" {
		return fmt.Errorf("tab with group_key %q must have an empty filter_string", groupKey)
	}
	if strings.HasPrefix(location, "workspace") {
		return fmt.Errorf("tab with group_key %q must not have a workspace location", groupKey)
	}
	return nil
}
