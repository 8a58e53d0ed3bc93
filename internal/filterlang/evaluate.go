package filterlang

import (
	"fmt"
	"strings"

	"github.com/qhana/plugin-registry/pkg/version"
)

// BatchSize matches spec §4.3's "batch size ≈500" and the original's
// tasks/plugin_filter.go DEFAULT_BATCH_SIZE.
const BatchSize = 500

// PluginView is the minimal per-plugin projection the evaluator needs: a
// numeric id, the identifier/version pair that makes up its full id, its
// title (matched by the `name` filter against Python's `RAMP.name`, which is
// the human title, not the machine identifier), its type, and its tag
// names. Built once per batch by the caller (internal/materializer,
// internal/filterquery) from store rows.
type PluginView struct {
	ID         uint
	Identifier string
	Version    string
	Name       string
	Type       string
	Tags       []string
}

// FullID is the "identifier@version" form matched by the `id` filter.
func (p PluginView) FullID() string { return p.Identifier + "@" + p.Version }

// EvaluateBatch returns the subset of batch ids matching expr, by recursive
// set algebra over the batch, grounded on get_plugins_from_filter:
//
//   - and   -> intersection over children (empty children => empty set)
//   - or    -> union over children (empty children => empty set)
//   - not   -> complement within the batch
//   - id    -> match full id; bare identifier also matches every version
//   - tag   -> tag membership
//   - version -> SpecifierSet(value).Contains(plugin.version)
//   - name  -> Ratio(plugin.name, value) > 0.8
//   - type  -> case-insensitive equality
func EvaluateBatch(expr Expr, batch []PluginView) (map[uint]struct{}, error) {
	switch expr.Kind {
	case KindMatchAll:
		return allIDs(batch), nil

	case KindAnd:
		if len(expr.And) == 0 {
			return map[uint]struct{}{}, nil
		}
		var result map[uint]struct{}
		for i, child := range expr.And {
			childSet, err := EvaluateBatch(child, batch)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				result = childSet
				continue
			}
			result = intersect(result, childSet)
		}
		return result, nil

	case KindOr:
		if len(expr.Or) == 0 {
			return map[uint]struct{}{}, nil
		}
		result := map[uint]struct{}{}
		for _, child := range expr.Or {
			childSet, err := EvaluateBatch(child, batch)
			if err != nil {
				return nil, err
			}
			for id := range childSet {
				result[id] = struct{}{}
			}
		}
		return result, nil

	case KindNot:
		if expr.Not == nil {
			return nil, fmt.Errorf("not expression missing operand")
		}
		childSet, err := EvaluateBatch(*expr.Not, batch)
		if err != nil {
			return nil, err
		}
		all := allIDs(batch)
		for id := range childSet {
			delete(all, id)
		}
		return all, nil

	case KindID:
		return matchID(expr.ID, batch), nil

	case KindTag:
		return matchTag(expr.Tag, batch), nil

	case KindType:
		return matchType(expr.Type, batch), nil

	case KindName:
		return matchName(expr.Name, batch), nil

	case KindVersion:
		return matchVersion(expr.Version, batch)

	default:
		return nil, fmt.Errorf("unrecognized filter expression kind %d", expr.Kind)
	}
}

func allIDs(batch []PluginView) map[uint]struct{} {
	set := make(map[uint]struct{}, len(batch))
	for _, p := range batch {
		set[p.ID] = struct{}{}
	}
	return set
}

func intersect(a, b map[uint]struct{}) map[uint]struct{} {
	result := make(map[uint]struct{})
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for id := range small {
		if _, ok := large[id]; ok {
			result[id] = struct{}{}
		}
	}
	return result
}

// matchID matches the full id ("identifier@version") exactly, or, when the
// filter value has no "@", matches any version of that identifier — the id
// filter suffix rule from spec §8.
func matchID(value string, batch []PluginView) map[uint]struct{} {
	result := map[uint]struct{}{}
	hasVersion := strings.Contains(value, "@")
	for _, p := range batch {
		if hasVersion {
			if p.FullID() == value {
				result[p.ID] = struct{}{}
			}
		} else if p.Identifier == value {
			result[p.ID] = struct{}{}
		}
	}
	return result
}

func matchTag(tag string, batch []PluginView) map[uint]struct{} {
	result := map[uint]struct{}{}
	for _, p := range batch {
		for _, t := range p.Tags {
			if t == tag {
				result[p.ID] = struct{}{}
				break
			}
		}
	}
	return result
}

func matchType(typ string, batch []PluginView) map[uint]struct{} {
	result := map[uint]struct{}{}
	target := strings.ToLower(typ)
	for _, p := range batch {
		if strings.ToLower(p.Type) == target {
			result[p.ID] = struct{}{}
		}
	}
	return result
}

// nameSimilarityThreshold is the fixed ratio cutoff from spec §4.3/§8.
const nameSimilarityThreshold = 0.8

func matchName(name string, batch []PluginView) map[uint]struct{} {
	result := map[uint]struct{}{}
	for _, p := range batch {
		if Ratio(p.Name, name) > nameSimilarityThreshold {
			result[p.ID] = struct{}{}
		}
	}
	return result
}

func matchVersion(spec string, batch []PluginView) (map[uint]struct{}, error) {
	specifier, err := version.ParseSpecifierSet(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid version specifier %q: %w", spec, err)
	}
	result := map[uint]struct{}{}
	for _, p := range batch {
		if specifier.Contains(p.Version) {
			result[p.ID] = struct{}{}
		}
	}
	return result, nil
}

// Chunk splits a slice of plugin views into BatchSize-sized batches, the
// streaming unit EvaluateBatch operates over so the evaluator never holds
// the whole table in memory at once.
func Chunk(views []PluginView, size int) [][]PluginView {
	if size <= 0 {
		size = BatchSize
	}
	var batches [][]PluginView
	for i := 0; i < len(views); i += size {
		end := i + size
		if end > len(views) {
			end = len(views)
		}
		batches = append(batches, views[i:end])
	}
	return batches
}
