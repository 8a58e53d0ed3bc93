package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware records an audit Event for every mutating request against the
// catalog collections (plugins, seeds, services, env, templates, tabs).
// GETs and health endpoints pass through unaudited. Writes are best-effort:
// a failure to persist the event never fails the request it describes.
func Middleware(store *Store, cfg *AuditConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !isAuditableEndpoint(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()
			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			statusCode := capture.statusCode
			outcome := outcomeFromStatus(statusCode)
			if outcome == "denied" && !cfg.LogDenied {
				return
			}

			actor := r.Header.Get("X-Registry-Actor")
			if actor == "" {
				actor = "anonymous"
			}
			requestID := middleware.GetReqID(r.Context())

			event := &Event{
				ID:           uuid.New().String(),
				EventType:    "request",
				Actor:        actor,
				RequestID:    requestID,
				ResourceType: extractResourceType(r.URL.Path),
				ResourceIDs:  JSONStringSlice(extractResourceIDs(r.URL.Path)),
				Action:       extractActionVerb(r.Method),
				Outcome:      outcome,
				StatusCode:   statusCode,
				CreatedAt:    startTime,
				Metadata: JSONAny{
					"method":   r.Method,
					"path":     r.URL.Path,
					"duration": time.Since(startTime).String(),
				},
			}

			if err := store.Append(event); err != nil {
				logger.Error("failed to write audit event", "error", err, "requestID", requestID)
			}
		})
	}
}

// RecordJob records an audit event for task-tier background work
// (discovery runs, purges, tab materialization) that happens outside an
// HTTP request. Writes are best-effort.
func RecordJob(store *Store, logger *slog.Logger, resourceType, action string, resourceIDs []string, outcome string, meta JSONAny) {
	if store == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	event := &Event{
		ID:           uuid.New().String(),
		EventType:    "job",
		Actor:        "system",
		ResourceType: resourceType,
		ResourceIDs:  JSONStringSlice(resourceIDs),
		Action:       action,
		Outcome:      outcome,
		CreatedAt:    time.Now(),
		Metadata:     meta,
	}
	if err := store.Append(event); err != nil {
		logger.Error("failed to write job audit event", "error", err, "resourceType", resourceType, "action", action)
	}
}

// outcomeFromStatus maps HTTP status codes to audit outcomes.
func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code == http.StatusForbidden:
		return "denied"
	default:
		return "failure"
	}
}
