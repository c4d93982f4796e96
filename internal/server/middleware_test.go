package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Error("request ID missing from context")
	}
	if got := rr.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID header = %q, want %q", got, seen)
	}
}

func TestLoggingMiddleware_EmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogField(r.Context(), "session_id", "sess_test")
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/x", nil))

	out := buf.String()
	if !strings.Contains(out, `"status":404`) {
		t.Errorf("log %q missing status", out)
	}
	if !strings.Contains(out, `"session_id":"sess_test"`) {
		t.Errorf("log %q missing handler-attached field", out)
	}
	if !strings.Contains(out, `"path":"/api/sessions/x"`) {
		t.Errorf("log %q missing path", out)
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	handler := TimeoutMiddleware(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.WriteHeader(http.StatusGatewayTimeout)
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want request context cancelled", rr.Code)
	}
}

func TestAddError(t *testing.T) {
	fields := make(map[string]string)
	ctx := context.WithValue(context.Background(), logFieldsKey{}, fields)

	AddError(ctx, nil)
	if len(fields) != 0 {
		t.Errorf("AddError(nil) wrote %v", fields)
	}

	AddError(ctx, context.DeadlineExceeded)
	if fields["error"] == "" {
		t.Error("AddError did not record the error")
	}
}
