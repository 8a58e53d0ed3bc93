// Package httpapi mounts the chi-routed HTTP surface described by spec §6
// over the core components (catalog store, filter query builder, filter
// evaluator, discovery crawler, tab materializer, recommendation engine,
// hypermedia response builder), grounded on pkg/catalog/plugin/server.go's
// route-mounting style and management_handlers.go's handler signatures.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/qhana/plugin-registry/internal/store"
)

// writeJSON writes an envelope as the response body with the given status,
// matching management_handlers.go's response-writing convention.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError writes a {"error": message} body, per spec §7's error taxonomy.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForStoreErr maps a store sentinel error onto the HTTP status from
// spec §7: 404 for not-found, 409 for conflicts, 500 otherwise.
func statusForStoreErr(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleStoreErr writes the appropriate response for a store error,
// logging unexpected (500) errors.
func handleStoreErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusForStoreErr(err)
	if status == http.StatusInternalServerError {
		logger.Error("store operation failed", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
