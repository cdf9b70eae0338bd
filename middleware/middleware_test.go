package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"musicbridge/metrics"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func TestLoggerAssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var seen string
	handler := Logger(zap.New(core), DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/play-track?track=x", http.NoBody)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("Expected a request ID header")
	}
	if seen != id {
		t.Errorf("Expected handler to see request ID %q, got %q", id, seen)
	}
	if logs.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["request_id"] != id || fields["path"] != "/play-track" {
		t.Errorf("Unexpected log fields: %v", fields)
	}
}

func TestLoggerKeepsValidClientRequestID(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	handler := Logger(zap.New(core), DefaultLoggingConfig())(statusHandler(http.StatusOK))

	tests := []struct {
		in   string
		keep bool
	}{
		{"client-id_01.a", true},
		{"bad id\nwith newline", false},
		{"x\x1b[31m", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/open-player", http.NoBody)
		req.Header.Set(RequestIDHeader, tt.in)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		got := w.Header().Get(RequestIDHeader)
		if tt.keep && got != tt.in {
			t.Errorf("Expected request ID %q to be kept, got %q", tt.in, got)
		}
		if !tt.keep && (got == tt.in || got == "") {
			t.Errorf("Expected request ID %q to be replaced, got %q", tt.in, got)
		}
	}
}

func TestLoggerLevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		handler := Logger(zap.New(core), DefaultLoggingConfig())(statusHandler(tt.status))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/play-track", http.NoBody))

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: expected 1 log entry, got %d", tt.status, len(entries))
		}
		if entries[0].Level != tt.level {
			t.Errorf("status %d: expected level %v, got %v", tt.status, tt.level, entries[0].Level)
		}
		if entries[0].ContextMap()["status"] != int64(tt.status) {
			t.Errorf("status %d: expected captured status, got %v", tt.status, entries[0].ContextMap()["status"])
		}
	}
}

func TestLoggerSkipsHealthAndMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := Logger(zap.New(core), DefaultLoggingConfig())(statusHandler(http.StatusOK))

	for _, path := range []string{"/health", "/api/health", "/metrics"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if w.Header().Get(RequestIDHeader) == "" {
			t.Errorf("%s: skipped paths still get a request ID", path)
		}
	}
	if logs.Len() != 0 {
		t.Errorf("Expected no log entries, got %d", logs.Len())
	}
}

func TestResponseWriterFirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)
	n, _ := rw.Write([]byte("abc"))

	if rw.statusCode != http.StatusNotFound || rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d / %d", rw.statusCode, rec.Code)
	}
	if n != 3 || rw.bytesWritten != 3 {
		t.Errorf("Expected 3 bytes written, got %d", rw.bytesWritten)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics)
	r.Handle("/play-track", statusHandler(http.StatusTeapot)).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/play-track", "418")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/play-track?track=abc", http.NoBody))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("Expected counter to increase by 1, went from %v to %v", before, got)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/play-track", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
	if called {
		t.Error("Preflight must not reach the wrapped handler")
	}
}

func TestCORSSimpleRequest(t *testing.T) {
	handler := CORS([]string{"http://localhost:3000"})(statusHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected origin to be echoed, got %q", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestMetricsLabelsUnmatchedRequests(t *testing.T) {
	r := mux.NewRouter()
	r.NotFoundHandler = Metrics(statusHandler(http.StatusNotFound))
	r.MethodNotAllowedHandler = Metrics(statusHandler(http.StatusMethodNotAllowed))
	r.Use(Metrics)
	r.Handle("/open-player", statusHandler(http.StatusOK)).Methods(http.MethodGet)

	notFound := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	notAllowed := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "unmatched", "405")
	beforeNotFound := testutil.ToFloat64(notFound)
	beforeNotAllowed := testutil.ToFloat64(notAllowed)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/secret/path", http.NoBody))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/open-player", http.NoBody))

	if got := testutil.ToFloat64(notFound); got != beforeNotFound+1 {
		t.Errorf("Expected 404 counter to increase by 1, went from %v to %v", beforeNotFound, got)
	}
	if got := testutil.ToFloat64(notAllowed); got != beforeNotAllowed+1 {
		t.Errorf("Expected 405 counter to increase by 1, went from %v to %v", beforeNotAllowed, got)
	}
}
