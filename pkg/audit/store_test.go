package audit

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestStoreDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	return db
}

func TestStore_AppendAndGetByID(t *testing.T) {
	db := openTestStoreDB(t)
	store := NewStore(db)

	event := &Event{
		ID:           "evt-1",
		EventType:    "request",
		Actor:        "alice",
		ResourceType: "plugin",
		ResourceIDs:  JSONStringSlice{"plugin-a"},
		Action:       "create",
		Outcome:      "success",
		StatusCode:   201,
		CreatedAt:    time.Now(),
	}

	if err := store.Append(event); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.GetByID("evt-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected event, got nil")
	}
	if got.Actor != "alice" {
		t.Errorf("Actor = %q, want alice", got.Actor)
	}
	if len(got.ResourceIDs) != 1 || got.ResourceIDs[0] != "plugin-a" {
		t.Errorf("ResourceIDs = %v, want [plugin-a]", got.ResourceIDs)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := openTestStoreDB(t)
	store := NewStore(db)

	got, err := store.GetByID("missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing event, got %+v", got)
	}
}

func TestStore_List_FiltersByResourceType(t *testing.T) {
	db := openTestStoreDB(t)
	store := NewStore(db)

	for i, rt := range []string{"plugin", "plugin", "seed"} {
		_ = store.Append(&Event{
			ID:           string(rune('a' + i)),
			EventType:    "request",
			Actor:        "alice",
			ResourceType: rt,
			Action:       "create",
			Outcome:      "success",
			CreatedAt:    time.Now().Add(time.Duration(i) * time.Second),
		})
	}

	events, _, total, err := store.List(ListFilter{ResourceType: "plugin"}, 10, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(events) != 2 {
		t.Errorf("len(events) = %d, want 2", len(events))
	}
}

func TestStore_DeleteOlderThan(t *testing.T) {
	db := openTestStoreDB(t)
	store := NewStore(db)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	_ = store.Append(&Event{ID: "old-1", Actor: "system", Outcome: "success", CreatedAt: old})
	_ = store.Append(&Event{ID: "new-1", Actor: "system", Outcome: "success", CreatedAt: recent})

	deleted, err := store.DeleteOlderThan(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	got, err := store.GetByID("new-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Error("expected new-1 to survive, got nil")
	}
}

func TestStore_AppendNilDB_NoError(t *testing.T) {
	store := &Store{}
	if err := store.Append(&Event{ID: "x"}); err != nil {
		t.Errorf("expected no error for nil db, got %v", err)
	}
}
