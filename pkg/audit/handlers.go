package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListEventsHandler handles GET /audit/events.
// Query params: resourceType, actor, eventType, pageSize, pageToken.
func ListEventsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			ResourceType: r.URL.Query().Get("resourceType"),
			Actor:        r.URL.Query().Get("actor"),
			EventType:    r.URL.Query().Get("eventType"),
		}

		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		pageToken := r.URL.Query().Get("pageToken")

		events, nextToken, total, err := store.List(filter, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}

		responses := make([]eventResponse, len(events))
		for i, e := range events {
			responses[i] = toResponse(e)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"events":        responses,
			"nextPageToken": nextToken,
			"totalSize":     total,
		})
	}
}

// GetEventHandler handles GET /audit/events/{eventId}.
func GetEventHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventId")
		if eventID == "" {
			writeError(w, http.StatusBadRequest, "missing event ID")
			return
		}

		event, err := store.GetByID(eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit event: %v", err))
			return
		}
		if event == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("audit event %q not found", eventID))
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*event))
	}
}

type eventResponse struct {
	ID           string         `json:"id"`
	EventType    string         `json:"eventType"`
	Actor        string         `json:"actor"`
	RequestID    string         `json:"requestId,omitempty"`
	ResourceType string         `json:"resourceType,omitempty"`
	ResourceIDs  []string       `json:"resourceIds,omitempty"`
	Action       string         `json:"action,omitempty"`
	Outcome      string         `json:"outcome"`
	StatusCode   int            `json:"statusCode,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    string         `json:"createdAt"`
}

func toResponse(e Event) eventResponse {
	return eventResponse{
		ID:           e.ID,
		EventType:    e.EventType,
		Actor:        e.Actor,
		RequestID:    e.RequestID,
		ResourceType: e.ResourceType,
		ResourceIDs:  []string(e.ResourceIDs),
		Action:       e.Action,
		Outcome:      e.Outcome,
		StatusCode:   e.StatusCode,
		Reason:       e.Reason,
		Metadata:     map[string]any(e.Metadata),
		CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
