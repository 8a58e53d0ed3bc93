package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_ManagementPOSTPassesThrough(t *testing.T) {
	cfg := &AuditConfig{Enabled: true, LogDenied: true}

	handler := Middleware(nil, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/plugins/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestMiddleware_GETBrowseSkipped(t *testing.T) {
	cfg := &AuditConfig{Enabled: true, LogDenied: true}

	handler := Middleware(nil, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/plugins/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestMiddleware_HealthSkipped(t *testing.T) {
	cfg := &AuditConfig{Enabled: true, LogDenied: true}

	handler := Middleware(nil, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/livez", "/readyz", "/healthz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, rec.Code)
		}
	}
}

func TestMiddleware_DisabledSkips(t *testing.T) {
	cfg := &AuditConfig{Enabled: false}

	handler := Middleware(nil, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/plugins/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestMiddleware_NilConfigSkips(t *testing.T) {
	handler := Middleware(nil, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/plugins/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestResponseCapture_StatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"200 OK", http.StatusOK},
		{"400 Bad Request", http.StatusBadRequest},
		{"403 Forbidden", http.StatusForbidden},
		{"500 Internal Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			capture := &responseCapture{ResponseWriter: rec, statusCode: http.StatusOK}

			capture.WriteHeader(tt.statusCode)

			if capture.statusCode != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, capture.statusCode)
			}
		})
	}
}

func TestResponseCapture_DoubleWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	capture := &responseCapture{ResponseWriter: rec, statusCode: http.StatusOK}

	capture.WriteHeader(http.StatusCreated)
	capture.WriteHeader(http.StatusInternalServerError)

	if capture.statusCode != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, capture.statusCode)
	}
}

func TestOutcomeFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "success"},
		{201, "success"},
		{204, "success"},
		{400, "failure"},
		{403, "denied"},
		{404, "failure"},
		{500, "failure"},
	}

	for _, tt := range tests {
		got := outcomeFromStatus(tt.code)
		if got != tt.want {
			t.Errorf("outcomeFromStatus(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMiddleware_ActorFromHeader(t *testing.T) {
	cfg := &AuditConfig{Enabled: true, LogDenied: true}

	handler := Middleware(nil, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/plugins/", nil)
	req.Header.Set("X-Registry-Actor", "alice")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestMiddleware_WriteBehavior(t *testing.T) {
	cfg := &AuditConfig{Enabled: true}

	handler := Middleware(nil, cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"created"}`))
	}))

	req := httptest.NewRequest("POST", "/plugins/", nil)
	req = req.WithContext(context.Background())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"created"}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRecordJob_NilStoreNoPanic(t *testing.T) {
	RecordJob(nil, nil, "discovery", "discover", []string{"seed-1"}, "success", nil)
}
