package recommend

import (
	"context"
	"fmt"

	"github.com/qhana/plugin-registry/internal/store"
)

// requiredConsumed is the minimal per-plugin projection the data-matching
// voters need: its id, type, and required consumed IOData entries.
type requiredConsumed struct {
	PluginID uint
	Type     string
	Required []ioRequirement
}

type ioRequirement struct {
	DataTypeStart, DataTypeEnd         string
	ContentTypeStarts, ContentTypeEnds []string // parallel slices, one pair per declared content type
}

// loadRequiredConsumed loads every plugin's required consumed IOData rows,
// shared by CurrentDataRecommender, StepDataRecommender, and
// AvailableDataRecommender/the admissibility filter.
func loadRequiredConsumed(db *store.Store) ([]requiredConsumed, error) {
	var rows []store.Plugin
	if err := db.DB().Preload("IOData.ContentTypes").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load plugins for recommendation voting: %w", err)
	}

	plugins := make([]requiredConsumed, 0, len(rows))
	for _, p := range rows {
		rc := requiredConsumed{PluginID: p.ID, Type: p.Type}
		for _, io := range p.IOData {
			if io.Relation != store.RelationConsumed || !io.Required {
				continue
			}
			req := ioRequirement{DataTypeStart: io.DataTypeStart, DataTypeEnd: io.DataTypeEnd}
			for _, ct := range io.ContentTypes {
				req.ContentTypeStarts = append(req.ContentTypeStarts, ct.ContentTypeStart)
				req.ContentTypeEnds = append(req.ContentTypeEnds, ct.ContentTypeEnd)
			}
			rc.Required = append(rc.Required, req)
		}
		plugins = append(plugins, rc)
	}
	return plugins, nil
}

// matchesWildcard reports whether a catalog-declared segment ("*" or exact)
// matches a requested segment, treating "*" on either side as a wildcard,
// per spec §4.2/§4.6.
func matchesWildcard(declared, requested string) bool {
	if declared == "*" || requested == "*" || requested == "" {
		return true
	}
	return declared == requested
}

// requirementMatchesItem reports whether a single DataItem satisfies an
// ioRequirement's data type and (if the requirement declares any) content
// type.
func requirementMatchesItem(req ioRequirement, item DataItem) bool {
	dtStart, dtEnd := splitType(item.DataType)
	if !matchesWildcard(req.DataTypeStart, dtStart) || !matchesWildcard(req.DataTypeEnd, dtEnd) {
		return false
	}
	if len(req.ContentTypeStarts) == 0 {
		return true
	}
	ctStart, ctEnd := splitType(item.ContentType)
	for i := range req.ContentTypeStarts {
		if matchesWildcard(req.ContentTypeStarts[i], ctStart) && matchesWildcard(req.ContentTypeEnds[i], ctEnd) {
			return true
		}
	}
	return false
}

func splitType(s string) (string, string) {
	if s == "" {
		return "*", "*"
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			start, end := s[:i], s[i+1:]
			if start == "" {
				start = "*"
			}
			if end == "" {
				end = "*"
			}
			return start, end
		}
	}
	return s, "*"
}

// requirementMatchesAvailable reports whether a requirement is satisfiable
// from the available_data map (data type -> content types).
func requirementMatchesAvailable(req ioRequirement, available map[string][]string) bool {
	for dataType, contentTypes := range available {
		dtStart, dtEnd := splitType(dataType)
		if !matchesWildcard(req.DataTypeStart, dtStart) || !matchesWildcard(req.DataTypeEnd, dtEnd) {
			continue
		}
		if len(req.ContentTypeStarts) == 0 {
			return true
		}
		if len(contentTypes) == 0 {
			return true
		}
		for _, ct := range contentTypes {
			ctStart, ctEnd := splitType(ct)
			for i := range req.ContentTypeStarts {
				if matchesWildcard(req.ContentTypeStarts[i], ctStart) && matchesWildcard(req.ContentTypeEnds[i], ctEnd) {
					return true
				}
			}
		}
	}
	return false
}

// CurrentDataRecommender votes for plugins whose required consumed IOData
// matches items in rc.CurrentData, with vote = min(1, available/required)
// per spec §4.6, grounded on recommendations/recommenders/current_data.go's
// CurrentDataRecommender.
type CurrentDataRecommender struct {
	store *store.Store
}

// NewCurrentDataRecommender creates the voter.
func NewCurrentDataRecommender(st *store.Store) *CurrentDataRecommender {
	return &CurrentDataRecommender{store: st}
}

func (v *CurrentDataRecommender) Name() string { return "CurrentDataRecommender" }

func (v *CurrentDataRecommender) GetVotes(ctx context.Context, rc *Context) ([]Task, error) {
	if len(rc.CurrentData) == 0 {
		return nil, nil
	}
	task := func(ctx context.Context) ([]Vote, error) {
		return voteOnDataMatch(v.store, rc.CurrentData)
	}
	return []Task{task}, nil
}

// voteOnDataMatch is the shared scoring routine for CurrentDataRecommender
// and StepDataRecommender's input-data half: for each plugin, available is
// the count of its required consumed entries satisfied by any item in data,
// required is the plugin's total required consumed entry count, and the
// vote is min(1, available/required) for plugins with available > 0.
func voteOnDataMatch(st *store.Store, data []DataItem) ([]Vote, error) {
	plugins, err := loadRequiredConsumed(st)
	if err != nil {
		return nil, err
	}

	var votes []Vote
	for _, p := range plugins {
		if len(p.Required) == 0 {
			continue
		}
		available := 0
		for _, req := range p.Required {
			for _, item := range data {
				if requirementMatchesItem(req, item) {
					available++
					break
				}
			}
		}
		if available == 0 {
			continue
		}
		weight := float64(available) / float64(len(p.Required))
		if weight > 1 {
			weight = 1
		}
		votes = append(votes, Vote{PluginID: p.PluginID, Weight: weight})
	}
	return votes, nil
}
