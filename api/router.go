package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"musicbridge/middleware"
)

// NewRouter registers every route. Each action is served at the root and under
// /api; /api/open-itunes and /api/open-youtube are kept for older clients.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	// mux skips Use middleware when no route matched, so these are wrapped directly.
	r.NotFoundHandler = middleware.Metrics(http.HandlerFunc(h.NotFound))
	r.MethodNotAllowedHandler = middleware.Metrics(http.HandlerFunc(h.MethodNotAllowed))
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
		r.HandleFunc(prefix+"/open-player", h.OpenPlayer).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/play-track", h.PlayTrack).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/open-browser-search", h.OpenBrowserSearch).Methods(http.MethodGet)
	}

	r.HandleFunc("/api/open-itunes", h.OpenPlayer).Methods(http.MethodGet)
	r.HandleFunc("/api/open-youtube", h.OpenBrowserSearch).Methods(http.MethodGet)

	return r
}

// NewHandler wraps the router with CORS and access logging.
func NewHandler(h *Handlers, corsOrigins []string, logger *zap.Logger) http.Handler {
	handler := middleware.CORS(corsOrigins)(NewRouter(h))
	return middleware.Logger(logger, middleware.DefaultLoggingConfig())(handler)
}
