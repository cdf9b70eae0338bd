package itunes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"musicbridge/itunes/model"
	"musicbridge/metrics"
)

const (
	DefaultApp     = "Music"
	DefaultTimeout = 5 * time.Second
)

// Action selects what the library script does.
type Action string

const (
	ActionSearch Action = "search"
	ActionList   Action = "list"
	ActionPlay   Action = "play"
)

// LibraryQuery is handed to the library script as a JSON argument. Nothing in it is
// ever spliced into script source.
type LibraryQuery struct {
	Action   Action   `json:"action"`
	Terms    []string `json:"terms,omitempty"`     // search: name must contain any term
	FoldCase bool     `json:"fold_case,omitempty"` // search: compare lowercased
	Limit    int      `json:"limit,omitempty"`     // search/list: 0 means no limit
	TrackID  string   `json:"track_id,omitempty"`  // play: persistent ID
}

// LibraryResult holds the tracks a library query produced, in library order.
type LibraryResult struct {
	Tracks []model.Track
}

// scriptResponse is the envelope printed by scripts/library.js
type scriptResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Tracks  []model.Track `json:"tracks"`
}

// Bridge is the seam between request handling and the host OS.
type Bridge interface {
	LaunchPlayer(ctx context.Context) error
	OpenURL(ctx context.Context, rawURL, browser string) error
	RunLibraryQuery(ctx context.Context, q LibraryQuery) (*LibraryResult, error)
}

// Runner executes a command and returns its captured output.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Options configures an OSABridge. Zero values fall back to defaults.
type Options struct {
	App     string
	Timeout time.Duration
	Logger  *zap.Logger
	Runner  Runner
}

// OSABridge drives Apple Music through open(1) and osascript.
type OSABridge struct {
	app     string
	timeout time.Duration
	logger  *zap.Logger
	run     Runner
}

// NewOSABridge creates a bridge for the given options.
func NewOSABridge(opts Options) *OSABridge {
	b := &OSABridge{
		app:     opts.App,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		run:     opts.Runner,
	}
	if b.app == "" {
		b.app = DefaultApp
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.run == nil {
		b.run = execRunner
	}
	return b
}

// App returns the name of the media application this bridge controls.
func (b *OSABridge) App() string {
	return b.app
}

// LaunchPlayer starts the media application or brings it to the front.
// Calling it while the app is already running is not an error.
func (b *OSABridge) LaunchPlayer(ctx context.Context) (err error) {
	const op = "launch_player"
	defer b.observe(op, time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, stderr, runErr := b.run(ctx, "open", "-a", b.app)
	if runErr != nil {
		return b.launchError(ctx, op, runErr, stderr, map[string]interface{}{"app": b.app})
	}
	return nil
}

// OpenURL opens rawURL in the named browser application.
func (b *OSABridge) OpenURL(ctx context.Context, rawURL, browser string) (err error) {
	const op = "open_url"
	defer b.observe(op, time.Now(), &err)

	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Scheme == "" || u.Host == "" {
		return newError(op, ErrValidation, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL), nil)
	}
	if strings.TrimSpace(browser) == "" {
		return newError(op, ErrValidation, errors.New("browser name is required"), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, stderr, runErr := b.run(ctx, "open", "-a", browser, u.String())
	if runErr != nil {
		return b.launchError(ctx, op, runErr, stderr, map[string]interface{}{"browser": browser, "url": u.String()})
	}
	return nil
}

// RunLibraryQuery runs the embedded library script with q as its only argument.
func (b *OSABridge) RunLibraryQuery(ctx context.Context, q LibraryQuery) (_ *LibraryResult, err error) {
	op := "library_" + string(q.Action)
	defer b.observe(op, time.Now(), &err)

	switch q.Action {
	case ActionSearch:
		if len(q.Terms) == 0 {
			return nil, newError(op, ErrValidation, errors.New("search requires at least one term"), nil)
		}
	case ActionPlay:
		if q.TrackID == "" {
			return nil, newError(op, ErrValidation, errors.New("play requires a track ID"), nil)
		}
	case ActionList:
	default:
		return nil, newError(op, ErrValidation, fmt.Errorf("unknown action %q", q.Action), nil)
	}

	arg, err := json.Marshal(q)
	if err != nil {
		return nil, newError(op, ErrAutomation, fmt.Errorf("failed to encode query: %w", err), nil)
	}

	// Create a temporary file with the embedded script
	tempFile, err := os.CreateTemp("", "musicbridge_library_*.js")
	if err != nil {
		return nil, newError(op, ErrAutomation, fmt.Errorf("failed to create temp file: %w", err), nil)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if _, err := tempFile.WriteString(libraryScript); err != nil {
		return nil, newError(op, ErrAutomation, fmt.Errorf("failed to write script to temp file: %w", err), nil)
	}
	tempFile.Close()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.logger.Debug("running library query",
		zap.String("action", string(q.Action)),
		zap.Strings("terms", q.Terms),
		zap.Bool("fold_case", q.FoldCase),
		zap.Int("limit", q.Limit))

	stdout, stderr, runErr := b.run(ctx, "osascript", "-l", "JavaScript", tempFile.Name(), string(arg))
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, newError(op, ErrAutomation, fmt.Errorf("%w after %s", ErrTimeout, b.timeout), nil)
		}
		return nil, newError(op, ErrAutomation, fmt.Errorf("%w: %s", ErrScriptFailed, diagnostic(runErr, stderr)), nil)
	}

	return parseScriptOutput(op, stdout)
}

func parseScriptOutput(op string, out []byte) (*LibraryResult, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, newError(op, ErrAutomation, fmt.Errorf("%w: empty output", ErrScriptFailed), nil)
	}

	var resp scriptResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, newError(op, ErrAutomation, fmt.Errorf("invalid JSON output: %w", err), nil)
	}
	if resp.Status != "ok" {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %q", resp.Status)
		}
		return nil, newError(op, ErrAutomation, fmt.Errorf("%w: %s", ErrScriptFailed, msg), nil)
	}

	tracks := resp.Tracks
	if tracks == nil {
		tracks = []model.Track{}
	}
	return &LibraryResult{Tracks: tracks}, nil
}

// launchError classifies a failed open(1) call.
func (b *OSABridge) launchError(ctx context.Context, op string, runErr error, stderr []byte, fields map[string]interface{}) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(op, ErrAutomation, fmt.Errorf("%w after %s", ErrTimeout, b.timeout), fields)
	}
	return newError(op, ErrLaunch, fmt.Errorf("%w: %s", ErrLaunchFailed, diagnostic(runErr, stderr)), fields)
}

func (b *OSABridge) observe(op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	status := "ok"
	if *errp != nil {
		status = KindOf(*errp).String()
		b.logger.Warn("automation call failed",
			zap.String("op", op),
			zap.Duration("elapsed", elapsed),
			zap.Error(*errp))
	} else {
		b.logger.Debug("automation call finished",
			zap.String("op", op),
			zap.Duration("elapsed", elapsed))
	}
	metrics.AutomationCallsTotal.WithLabelValues(op, status).Inc()
	metrics.AutomationCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// diagnostic prefers the command's stderr over the bare exit status.
func diagnostic(err error, stderr []byte) string {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v (%s)", err, msg)
}
