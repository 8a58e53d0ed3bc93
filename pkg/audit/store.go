package audit

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store provides append-only operations for audit events.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store and ensures the backing table exists.
func NewStore(db *gorm.DB) *Store {
	if db != nil {
		_ = db.AutoMigrate(&Event{})
	}
	return &Store{db: db}
}

// Append records a new immutable audit event.
func (s *Store) Append(event *Event) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListFilter narrows List results by resource type, actor, and/or event type.
type ListFilter struct {
	ResourceType string
	Actor        string
	EventType    string
}

// List returns paginated audit events ordered by created_at DESC (newest
// first). pageToken is an RFC3339Nano timestamp; events older than it are
// returned.
func (s *Store) List(filter ListFilter, pageSize int, pageToken string) ([]Event, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	base := s.db.Model(&Event{})
	if filter.ResourceType != "" {
		base = base.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.Actor != "" {
		base = base.Where("actor = ?", filter.Actor)
	}
	if filter.EventType != "" {
		base = base.Where("event_type = ?", filter.EventType)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count audit events: %w", err)
	}

	query := base.Session(&gorm.Session{}).Order("created_at DESC").Limit(pageSize + 1)
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at < ?", t)
	}

	var events []Event
	if err := query.Find(&events).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list audit events: %w", err)
	}

	var nextToken string
	if len(events) > pageSize {
		nextToken = events[pageSize-1].CreatedAt.Format(time.RFC3339Nano)
		events = events[:pageSize]
	}

	return events, nextToken, int(total), nil
}

// GetByID returns a single event, or nil if not found.
func (s *Store) GetByID(id string) (*Event, error) {
	var event Event
	err := s.db.Where("id = ?", id).First(&event).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit event: %w", err)
	}
	return &event, nil
}

// DeleteOlderThan deletes events created before cutoff, returning the count removed.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&Event{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
