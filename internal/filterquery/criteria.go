// Package filterquery implements the filter query builder (C2): translating
// structured filter criteria into catalog queries, and paginating the
// result by a stable cursor.
package filterquery

import (
	"time"

	"github.com/qhana/plugin-registry/internal/store"
	"gorm.io/gorm"
)

// Criteria is the optional filter set accepted by the plugin collection
// endpoint, mirroring spec §4.2's table exactly.
type Criteria struct {
	IDs []uint // equality / set membership on Plugin.id

	URL string // equality on Plugin.url (matched against EntryURL)

	LastAvailablePeriod time.Duration // last_available >= now - period, when > 0

	Identifier string
	Version    string // exact PEP-440 version, or a specifier set resolved by the caller into CandidateVersions
	// CandidateVersions, when non-nil, is the pre-resolved set of versions
	// satisfying a specifier-range Version (spec §4.2: "load candidate
	// versions, filter on the server ... emit version IN (...)").
	CandidateVersions []string

	TagsMustHave  []string
	TagsForbidden []string

	InputDataType    string // "*" wildcard on either side
	InputContentType string

	TemplateTabID uint

	Type string
}

// Apply builds a *gorm.DB query scoped to the plugins table reflecting every
// set criterion. It never string-concatenates user input into SQL; every
// value is passed through GORM's parameterized Where, the same defensive
// posture as the teacher's SanitizeFilterQuery.
func Apply(db *gorm.DB, c Criteria, now time.Time) *gorm.DB {
	q := db.Model(&store.Plugin{})

	if len(c.IDs) > 0 {
		q = q.Where("plugins.id IN ?", c.IDs)
	}

	if c.URL != "" {
		q = q.Where("plugins.entry_url = ?", c.URL)
	}

	if c.LastAvailablePeriod > 0 {
		q = q.Where("plugins.last_available >= ?", now.Add(-c.LastAvailablePeriod))
	}

	if c.Identifier != "" {
		q = q.Where("plugins.identifier = ?", c.Identifier)
		if c.Version != "" {
			q = q.Where("plugins.version = ?", c.Version)
		} else if c.CandidateVersions != nil {
			q = q.Where("plugins.version IN ?", c.CandidateVersions)
		}
	}

	if len(c.TagsMustHave) > 0 {
		q = mustHaveTags(q, c.TagsMustHave)
	}
	if len(c.TagsForbidden) > 0 {
		q = forbidTags(q, c.TagsForbidden)
	}

	if c.InputDataType != "" || c.InputContentType != "" {
		q = matchesInputData(q, c.InputDataType, c.InputContentType)
	}

	if c.TemplateTabID != 0 {
		q = q.Where("plugins.id IN (SELECT plugin_id FROM template_tab_plugins WHERE template_tab_id = ?)", c.TemplateTabID)
	}

	if c.Type != "" {
		q = q.Where("plugins.type = ?", c.Type)
	}

	return q
}

// mustHaveTags restricts to plugins that carry every tag name in names. If
// any name is unknown to the tag table the query is forced empty, per
// spec §4.2 ("if any must-have name is unknown to the tag table, the query
// is forced to empty").
func mustHaveTags(q *gorm.DB, names []string) *gorm.DB {
	var tagIDs []uint
	q.Session(&gorm.Session{NewDB: true}).Table("tags").Where("name IN ?", names).Pluck("id", &tagIDs)
	if len(tagIDs) != len(names) {
		return q.Where("1 = 0")
	}
	return q.Where(`plugins.id IN (
		SELECT plugin_id FROM plugin_tags WHERE tag_id IN ?
		GROUP BY plugin_id HAVING COUNT(DISTINCT tag_id) = ?
	)`, tagIDs, len(tagIDs))
}

// forbidTags excludes plugins carrying any tag name in names.
func forbidTags(q *gorm.DB, names []string) *gorm.DB {
	return q.Where(`plugins.id NOT IN (
		SELECT pt.plugin_id FROM plugin_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE t.name IN ?
	)`, names)
}

// matchesInputData restricts to plugins with a consumed IOData row whose
// (data-type, content-type) matches, treating "*" as a wildcard on either
// side, per spec §4.2.
func matchesInputData(q *gorm.DB, dataType, contentType string) *gorm.DB {
	dtStart, dtEnd := splitOnce(dataType)
	ctStart, ctEnd := splitOnce(contentType)

	sub := `plugins.id IN (
		SELECT io.plugin_id FROM io_data io
		WHERE io.relation = 'consumed'
		AND (? = '' OR io.data_type_start = '*' OR ? = '*' OR io.data_type_start = ?)
		AND (? = '' OR io.data_type_end = '*' OR ? = '*' OR io.data_type_end = ?)`
	args := []any{dtStart, dtStart, dtStart, dtEnd, dtEnd, dtEnd}

	if contentType != "" {
		sub += ` AND io.id IN (
			SELECT ct.io_data_id FROM content_types ct
			WHERE (ct.content_type_start = '*' OR ? = '*' OR ct.content_type_start = ?)
			AND (ct.content_type_end = '*' OR ? = '*' OR ct.content_type_end = ?)
		)`
		args = append(args, ctStart, ctStart, ctEnd, ctEnd)
	}
	sub += ")"

	return q.Where(sub, args...)
}

// splitOnce splits a "start/end" pair the way the store splits data types
// and content types.
func splitOnce(s string) (string, string) {
	if s == "" {
		return "", ""
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			start := s[:i]
			end := s[i+1:]
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
