package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONStringSlice is a custom GORM type for []string stored as JSON text.
type JSONStringSlice []string

func (s *JSONStringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for JSONStringSlice: %T", value)
	}
	return json.Unmarshal(raw, s)
}

func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONAny is a custom GORM type for map[string]any stored as JSON text.
type JSONAny map[string]any

func (m *JSONAny) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type for JSONAny: %T", value)
	}
	return json.Unmarshal(raw, m)
}

func (m JSONAny) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Event is an immutable audit log entry covering both request-tier actions
// (plugin/seed/service/env/template/tab CRUD over HTTP) and task-tier
// background work (discovery runs, purges, tab materialization).
type Event struct {
	ID           string          `gorm:"primaryKey;column:id;type:varchar(36)"`
	EventType    string          `gorm:"column:event_type;index:idx_audit_type_time,priority:1;not null"` // "request" or "job"
	Actor        string          `gorm:"column:actor;index:idx_audit_actor_time,priority:1;not null"`
	RequestID    string          `gorm:"column:request_id;index"`
	ResourceType string          `gorm:"column:resource_type;index:idx_audit_resource_time,priority:1"` // plugin, seed, service, env, template, tab, discovery, purge
	ResourceIDs  JSONStringSlice `gorm:"column:resource_ids;type:text"`
	Action       string          `gorm:"column:action"`           // create, update, delete, discover, purge, materialize
	Outcome      string          `gorm:"column:outcome;not null"` // success, failure, denied
	StatusCode   int             `gorm:"column:status_code"`
	Reason       string          `gorm:"column:reason"`
	Metadata     JSONAny         `gorm:"column:metadata;type:text"`
	CreatedAt    time.Time       `gorm:"column:created_at;index:idx_audit_type_time,priority:2;index:idx_audit_actor_time,priority:2;index:idx_audit_resource_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (Event) TableName() string { return "audit_events" }
