// Package api exposes the media actions over HTTP.
package api

import (
	"net/http"

	"go.uber.org/zap"

	"musicbridge/actions"
	"musicbridge/middleware"
)

type Handlers struct {
	actions *actions.Service
	logger  *zap.Logger
}

func New(svc *actions.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		actions: svc,
		logger:  logger.Named("api"),
	}
}

// HealthResponse is the body of the liveness check
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthCheck always reports ok while the process is serving
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, h.logger, HealthResponse{Status: "ok", Message: "Server is running"})
	}
}

// OpenPlayer launches or focuses the media application
func (h *Handlers) OpenPlayer(w http.ResponseWriter, r *http.Request) {
	res := h.actions.OpenPlayer(r.Context())
	h.logResult(r, "open_player", res.Success, res.Status)
	writeResult(w, h.logger, res)
}

// PlayTrack resolves ?track= against the library and plays the match
func (h *Handlers) PlayTrack(w http.ResponseWriter, r *http.Request) {
	res := h.actions.PlayTrack(r.Context(), r.URL.Query().Get("track"))
	h.logResult(r, "play_track", res.Success, res.Status)
	writeResult(w, h.logger, res)
}

// OpenBrowserSearch opens a video search for ?query= in the configured browser
func (h *Handlers) OpenBrowserSearch(w http.ResponseWriter, r *http.Request) {
	res := h.actions.OpenBrowserSearch(r.Context(), r.URL.Query().Get("query"))
	h.logResult(r, "open_browser_search", res.Success, res.Status)
	writeResult(w, h.logger, res)
}

// NotFound keeps unknown routes on the JSON contract
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, h.logger, "Unknown endpoint: "+r.URL.Path, http.StatusNotFound)
}

// MethodNotAllowed keeps wrong-method requests on the JSON contract
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, h.logger, "Method "+r.Method+" not allowed on "+r.URL.Path, http.StatusMethodNotAllowed)
}

func (h *Handlers) logResult(r *http.Request, op string, success bool, status int) {
	h.logger.Debug("action finished",
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.String("op", op),
		zap.Bool("success", success),
		zap.Int("status", status))
}
