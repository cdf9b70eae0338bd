// Package itunestest provides an in-memory itunes.Bridge for tests.
package itunestest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"musicbridge/itunes"
	"musicbridge/itunes/model"
)

// Bridge is a scripted itunes.Bridge. The library is searched the same way the
// JXA script does it, so resolver behaviour can be exercised without macOS.
type Bridge struct {
	mu sync.Mutex

	Library []model.Track

	LaunchErr  error
	OpenURLErr error
	// QueryErr, when set, is returned by library queries whose action is listed in
	// FailActions, or by every library query if FailActions is empty.
	QueryErr    error
	FailActions []itunes.Action

	// Delay is how long every call takes. A call whose context ends first
	// fails with an automation timeout, like the real bridge.
	Delay time.Duration

	launches int
	queries  []itunes.LibraryQuery
	played   []model.Track
	opened   []OpenedURL
}

// OpenedURL records one OpenURL call.
type OpenedURL struct {
	URL     string
	Browser string
}

// New returns a fake bridge whose library holds tracks in the given order.
func New(tracks ...model.Track) *Bridge {
	return &Bridge{Library: tracks}
}

// Tracks builds a library from name/artist pairs, assigning sequential IDs.
// It panics on an odd number of arguments.
func Tracks(nameArtist ...string) []model.Track {
	if len(nameArtist)%2 != 0 {
		panic(fmt.Sprintf("itunestest.Tracks: odd number of arguments (%d), want name/artist pairs", len(nameArtist)))
	}
	tracks := make([]model.Track, 0, len(nameArtist)/2)
	for i := 0; i+1 < len(nameArtist); i += 2 {
		tracks = append(tracks, model.Track{
			ID:     fmt.Sprintf("%016X", i/2+1),
			Name:   nameArtist[i],
			Artist: nameArtist[i+1],
		})
	}
	return tracks
}

// wait sleeps for Delay or until ctx ends.
func (b *Bridge) wait(ctx context.Context, op string) error {
	if b.Delay > 0 {
		t := time.NewTimer(b.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	switch err := ctx.Err(); {
	case errors.Is(err, context.DeadlineExceeded):
		return &itunes.Error{Op: op, Kind: itunes.ErrAutomation, Err: fmt.Errorf("%w: %v", itunes.ErrTimeout, err)}
	case err != nil:
		return &itunes.Error{Op: op, Kind: itunes.ErrAutomation, Err: err}
	}
	return nil
}

func (b *Bridge) LaunchPlayer(ctx context.Context) error {
	if err := b.wait(ctx, "launch_player"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.launches++
	if b.LaunchErr != nil {
		return &itunes.Error{Op: "launch_player", Kind: itunes.ErrLaunch, Err: b.LaunchErr}
	}
	return nil
}

func (b *Bridge) OpenURL(ctx context.Context, rawURL, browser string) error {
	if err := b.wait(ctx, "open_url"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, OpenedURL{URL: rawURL, Browser: browser})
	if b.OpenURLErr != nil {
		return &itunes.Error{Op: "open_url", Kind: itunes.ErrLaunch, Err: b.OpenURLErr}
	}
	return nil
}

func (b *Bridge) RunLibraryQuery(ctx context.Context, q itunes.LibraryQuery) (*itunes.LibraryResult, error) {
	b.mu.Lock()
	b.queries = append(b.queries, q)
	b.mu.Unlock()

	if err := b.wait(ctx, "library_"+string(q.Action)); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shouldFail(q.Action) {
		return nil, &itunes.Error{Op: "library_" + string(q.Action), Kind: itunes.ErrAutomation, Err: b.QueryErr}
	}

	switch q.Action {
	case itunes.ActionSearch:
		return &itunes.LibraryResult{Tracks: b.search(q)}, nil
	case itunes.ActionList:
		n := len(b.Library)
		if q.Limit > 0 && n > q.Limit {
			n = q.Limit
		}
		out := make([]model.Track, n)
		copy(out, b.Library[:n])
		return &itunes.LibraryResult{Tracks: out}, nil
	case itunes.ActionPlay:
		for _, t := range b.Library {
			if t.ID == q.TrackID {
				b.played = append(b.played, t)
				return &itunes.LibraryResult{Tracks: []model.Track{t}}, nil
			}
		}
		return nil, &itunes.Error{
			Op:   "library_play",
			Kind: itunes.ErrAutomation,
			Err:  fmt.Errorf("%w: no track with persistent ID %s", itunes.ErrScriptFailed, q.TrackID),
		}
	}
	return nil, &itunes.Error{Op: "library_" + string(q.Action), Kind: itunes.ErrValidation, Err: fmt.Errorf("unknown action %q", q.Action)}
}

func (b *Bridge) shouldFail(action itunes.Action) bool {
	if b.QueryErr == nil {
		return false
	}
	if len(b.FailActions) == 0 {
		return true
	}
	for _, a := range b.FailActions {
		if a == action {
			return true
		}
	}
	return false
}

func (b *Bridge) search(q itunes.LibraryQuery) []model.Track {
	out := []model.Track{}
	for _, t := range b.Library {
		name := t.Name
		if q.FoldCase {
			name = strings.ToLower(name)
		}
		for _, term := range q.Terms {
			if q.FoldCase {
				term = strings.ToLower(term)
			}
			if strings.Contains(name, term) {
				out = append(out, t)
				break
			}
		}
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

// Launches returns how many times LaunchPlayer was called.
func (b *Bridge) Launches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launches
}

// Queries returns every library query received, in order.
func (b *Bridge) Queries() []itunes.LibraryQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]itunes.LibraryQuery(nil), b.queries...)
}

// Played returns the tracks passed to play, in order.
func (b *Bridge) Played() []model.Track {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Track(nil), b.played...)
}

// Opened returns every URL passed to OpenURL.
func (b *Bridge) Opened() []OpenedURL {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]OpenedURL(nil), b.opened...)
}

var _ itunes.Bridge = (*Bridge)(nil)
