// Package actions implements the three user-facing operations (open the player,
// play a track, search the web) on top of the automation bridge. Both the HTTP
// API and the MCP server call into it.
package actions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"musicbridge/itunes"
	"musicbridge/itunes/model"
	"musicbridge/resolver"
)

// TrackResolver resolves and plays a free-text track query.
type TrackResolver interface {
	Resolve(ctx context.Context, query string) (resolver.Outcome, error)
}

// BrowserSettings describes where web searches are opened.
type BrowserSettings struct {
	Name        string // browser application, e.g. "Brave Browser"
	SiteName    string // shown in messages, e.g. "YouTube"
	SearchURL   string
	SearchParam string
}

// Service runs actions against a bridge.
type Service struct {
	bridge   itunes.Bridge
	resolver TrackResolver
	app      string
	browser  BrowserSettings
	deadline time.Duration
	logger   *zap.Logger
}

// NewService creates a Service. app is the media application name used in
// messages; it should match the bridge's configuration.
func NewService(bridge itunes.Bridge, res TrackResolver, app string, browser BrowserSettings, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		bridge:   bridge,
		resolver: res,
		app:      app,
		browser:  browser,
		logger:   logger.Named("actions"),
	}
}

// WithDeadline bounds every action to d in total, however many automation
// calls it makes. Zero means no overall bound.
func (s *Service) WithDeadline(d time.Duration) *Service {
	s.deadline = d
	return s
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deadline <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.deadline)
}

// OpenPlayer launches or focuses the media application.
func (s *Service) OpenPlayer(ctx context.Context) model.ActionResult {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.bridge.LaunchPlayer(ctx); err != nil {
		return failure(err, "Failed to open %s app: %v", s.app, err)
	}
	return success("%s app opened successfully", s.app)
}

// PlayTrack opens the player and plays the best match for track. A query that
// matches nothing is a successful call with Success=false.
func (s *Service) PlayTrack(ctx context.Context, track string) model.ActionResult {
	track = strings.TrimSpace(track)
	if track == "" {
		return model.ActionResult{
			Message: "No track name provided. Use ?track=<track_name> in the URL.",
			Status:  http.StatusBadRequest,
		}
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.bridge.LaunchPlayer(ctx); err != nil {
		return failure(err, "Failed to play track: could not open %s app: %v", s.app, err)
	}

	out, err := s.resolver.Resolve(ctx, track)
	if err != nil {
		return failure(err, "Failed to play track: %v", err)
	}

	return model.ActionResult{
		Success: out.Found(),
		Message: out.Message(),
		Match:   out.Detail(),
		Status:  http.StatusOK,
	}
}

// OpenBrowserSearch opens the configured search page for query in the
// configured browser.
func (s *Service) OpenBrowserSearch(ctx context.Context, query string) model.ActionResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.ActionResult{
			Message: "No search query provided. Use ?query=<search_query> in the URL.",
			Status:  http.StatusBadRequest,
		}
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	target, err := BuildSearchURL(s.browser.SearchURL, s.browser.SearchParam, query)
	if err != nil {
		return failure(err, "Failed to build search URL: %v", err)
	}
	s.logger.Debug("opening search", zap.String("url", target), zap.String("browser", s.browser.Name))

	if err := s.bridge.OpenURL(ctx, target, s.browser.Name); err != nil {
		return failure(err, "Failed to open %s in %s: %v", s.browser.SiteName, s.browser.Name, err)
	}
	return success("Opened %s in %s and searched for '%s'", s.browser.SiteName, s.browser.Name, query)
}

// BuildSearchURL returns base with param set to the percent-encoded query.
// Spaces become %20. Existing query parameters on base are kept.
func BuildSearchURL(base, param, query string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", itunes.ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not absolute", itunes.ErrInvalidURL, base)
	}
	values := u.Query()
	values.Set(param, query)
	// Encode escapes a literal '+' as %2B, so every '+' left is a space.
	u.RawQuery = strings.ReplaceAll(values.Encode(), "+", "%20")
	return u.String(), nil
}

// StatusFor maps an error to the HTTP status reported to the caller.
func StatusFor(err error) int {
	if itunes.KindOf(err) == itunes.ErrValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func success(format string, args ...interface{}) model.ActionResult {
	return model.ActionResult{Success: true, Message: fmt.Sprintf(format, args...), Status: http.StatusOK}
}

func failure(err error, format string, args ...interface{}) model.ActionResult {
	return model.ActionResult{Message: fmt.Sprintf(format, args...), Status: StatusFor(err)}
}
