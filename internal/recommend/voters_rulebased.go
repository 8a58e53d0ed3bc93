package recommend

import (
	"context"
	"strings"

	"github.com/qhana/plugin-registry/internal/store"
)

// rulePattern matches the current plugin either by id (with or without a
// version segment) or by a set of tags it must carry, per spec §4.6's
// closed rule-table pattern language (spec §9 Open Question: kept closed
// until a rule-resource CRUD surface exists).
type rulePattern struct {
	PluginID string   // "identifier" or "identifier@version"; empty if tag-matched
	Tags     []string // all must be present on the current plugin; empty if id-matched
}

// ruleRecommendation is one recommended target: either a specific plugin id
// or every plugin carrying a given tag set, at the given weight.
type ruleRecommendation struct {
	PluginID string
	Tags     []string
	Weight   float64
}

type rule struct {
	Pattern     rulePattern
	Recommended []ruleRecommendation
}

// rules is the static, closed rule table. Entries here are illustrative of
// common pipeline continuations (a clustering step recommending
// visualization plugins, a data-loading step recommending preprocessing)
// grounded on the shape of recommendations/recommenders/rule_based.go's
// RULES constant; the set is intentionally small since spec §9 keeps this
// list closed pending a rule-resource CRUD surface.
var rules = []rule{
	{
		Pattern: rulePattern{Tags: []string{"clustering"}},
		Recommended: []ruleRecommendation{
			{Tags: []string{"visualization"}, Weight: 2},
		},
	},
	{
		Pattern: rulePattern{Tags: []string{"data-loader"}},
		Recommended: []ruleRecommendation{
			{Tags: []string{"preprocessing"}, Weight: 2},
		},
	},
}

// RuleBasedRecommender fires only when step_success is true and
// current_plugin is set, walking the static rule table, per spec §4.6.
type RuleBasedRecommender struct {
	store *store.Store
}

// NewRuleBasedRecommender creates the voter.
func NewRuleBasedRecommender(st *store.Store) *RuleBasedRecommender {
	return &RuleBasedRecommender{store: st}
}

func (v *RuleBasedRecommender) Name() string { return "RuleBasedRecommender" }

func (v *RuleBasedRecommender) GetVotes(ctx context.Context, rc *Context) ([]Task, error) {
	if rc.StepSuccess == nil || !*rc.StepSuccess || rc.CurrentPlugin == nil {
		return nil, nil
	}
	pluginID := *rc.CurrentPlugin
	task := func(ctx context.Context) ([]Vote, error) {
		return v.vote(pluginID)
	}
	return []Task{task}, nil
}

func (v *RuleBasedRecommender) vote(currentPluginID uint) ([]Vote, error) {
	current, err := v.store.GetPlugin(currentPluginID)
	if err != nil {
		return nil, err
	}
	currentTags := make(map[string]struct{}, len(current.Tags))
	for _, t := range current.Tags {
		currentTags[t.Name] = struct{}{}
	}

	var votes []Vote
	for _, r := range rules {
		if !patternMatches(r.Pattern, current, currentTags) {
			continue
		}
		for _, rec := range r.Recommended {
			matched, err := v.resolveRecommendation(rec)
			if err != nil {
				return nil, err
			}
			votes = append(votes, matched...)
		}
	}
	return votes, nil
}

func patternMatches(p rulePattern, current *store.Plugin, currentTags map[string]struct{}) bool {
	if p.PluginID != "" {
		if strings.Contains(p.PluginID, "@") {
			return current.FullID() == p.PluginID
		}
		return current.Identifier == p.PluginID
	}
	for _, tag := range p.Tags {
		if _, ok := currentTags[tag]; !ok {
			return false
		}
	}
	return len(p.Tags) > 0
}

func (v *RuleBasedRecommender) resolveRecommendation(rec ruleRecommendation) ([]Vote, error) {
	if rec.PluginID != "" {
		var (
			p   *store.Plugin
			err error
		)
		if strings.Contains(rec.PluginID, "@") {
			parts := strings.SplitN(rec.PluginID, "@", 2)
			p, err = v.store.GetPluginByIdentifierVersion(parts[0], parts[1])
		} else {
			return nil, nil // bare-identifier recommendation targets need a version; skip.
		}
		if err != nil {
			return nil, nil
		}
		return []Vote{{PluginID: p.ID, Weight: rec.Weight}}, nil
	}

	if len(rec.Tags) == 0 {
		return nil, nil
	}
	var allPlugins []store.Plugin
	if err := v.store.DB().Preload("Tags").Find(&allPlugins).Error; err != nil {
		return nil, err
	}

	var votes []Vote
	for _, p := range allPlugins {
		if hasAllTagNames(p.Tags, rec.Tags) {
			votes = append(votes, Vote{PluginID: p.ID, Weight: rec.Weight})
		}
	}
	return votes, nil
}

func hasAllTagNames(tags []store.Tag, names []string) bool {
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[t.Name] = struct{}{}
	}
	for _, n := range names {
		if _, ok := have[n]; !ok {
			return false
		}
	}
	return true
}
