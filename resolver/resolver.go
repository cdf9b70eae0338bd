// Package resolver turns a free-text track query into a single library track and
// starts playing it.
//
// Matching runs three passes and stops at the first one that finds something:
//
//  1. the whole query as a case-insensitive substring of track names;
//  2. each word longer than MinWordLength, in query order, as a case-sensitive
//     substring of track names;
//  3. nothing matched: a sample of library track names is returned for display.
//
// Ties within a pass go to the library's own enumeration order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"musicbridge/itunes"
	"musicbridge/itunes/model"
	"musicbridge/metrics"
)

const (
	// MinWordLength is exclusive: only words longer than this are tried in the
	// word pass.
	MinWordLength = 3
	// SampleSize caps the track names reported when nothing matches.
	SampleSize = 5
)

// Library is the part of itunes.Bridge the resolver needs.
type Library interface {
	RunLibraryQuery(ctx context.Context, q itunes.LibraryQuery) (*itunes.LibraryResult, error)
}

// Kind tags which variant of Outcome is active.
type Kind int

const (
	ExactMatch Kind = iota + 1
	FuzzyMatch
	NotFound
)

func (k Kind) String() string {
	switch k {
	case ExactMatch:
		return "exact"
	case FuzzyMatch:
		return "fuzzy"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Outcome is the result of a resolution. Track and MatchedWord are only set for
// matches; Sample is only set for NotFound.
type Outcome struct {
	Kind        Kind
	Query       string
	Track       model.Track
	MatchedWord string
	Sample      []string
}

// Found reports whether a track was selected and is now playing.
func (o Outcome) Found() bool {
	return o.Kind == ExactMatch || o.Kind == FuzzyMatch
}

// Message renders the outcome for display.
func (o Outcome) Message() string {
	switch o.Kind {
	case ExactMatch:
		return fmt.Sprintf("Now playing: %s by %s", o.Track.Name, o.Track.Artist)
	case FuzzyMatch:
		return fmt.Sprintf("Found similar track: %s by %s (matched on '%s')", o.Track.Name, o.Track.Artist, o.MatchedWord)
	case NotFound:
		if len(o.Sample) == 0 {
			return fmt.Sprintf("Track not found: '%s'. The library appears to be empty.", o.Query)
		}
		return fmt.Sprintf("Track not found: '%s'. Some available tracks: %s", o.Query, strings.Join(o.Sample, ", "))
	default:
		return ""
	}
}

// Detail converts the outcome into its JSON form.
func (o Outcome) Detail() *model.MatchDetail {
	d := &model.MatchDetail{Kind: o.Kind.String()}
	if o.Found() {
		d.Track = o.Track.Name
		d.Artist = o.Track.Artist
		d.MatchedWord = o.MatchedWord
	} else {
		d.Available = o.Sample
	}
	return d
}

// Resolver implements the matching policy on top of a Library.
type Resolver struct {
	lib    Library
	logger *zap.Logger
}

// New creates a Resolver. A nil logger disables logging.
func New(lib Library, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lib: lib, logger: logger.Named("resolver")}
}

// Resolve finds the best track for query and plays it. A NotFound outcome is not
// an error; errors always come from the automation layer (or an empty query).
func (r *Resolver) Resolve(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{}, &itunes.Error{Op: "resolve", Kind: itunes.ErrValidation, Err: errors.New("query is empty")}
	}

	out, err := r.resolve(ctx, query)
	if err != nil {
		metrics.ResolverOutcomesTotal.WithLabelValues("error").Inc()
		r.logger.Warn("resolution failed", zap.String("query", query), zap.Error(err))
		return Outcome{}, err
	}

	metrics.ResolverOutcomesTotal.WithLabelValues(out.Kind.String()).Inc()
	r.logger.Info("resolved track query",
		zap.String("query", query),
		zap.Stringer("outcome", out.Kind),
		zap.String("track", out.Track.Name),
		zap.String("matched_word", out.MatchedWord))
	return out, nil
}

func (r *Resolver) resolve(ctx context.Context, query string) (Outcome, error) {
	// Exact pass
	track, ok, err := r.first(ctx, caseVariants(query), true)
	if err != nil {
		return Outcome{}, fmt.Errorf("exact search: %w", err)
	}
	if ok {
		if err := r.play(ctx, track); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: ExactMatch, Query: query, Track: track}, nil
	}

	// Word pass
	for _, word := range candidateWords(query) {
		track, ok, err := r.first(ctx, []string{word}, false)
		if err != nil {
			return Outcome{}, fmt.Errorf("word search %q: %w", word, err)
		}
		if !ok {
			r.logger.Debug("word produced no match", zap.String("word", word))
			continue
		}
		if err := r.play(ctx, track); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: FuzzyMatch, Query: query, Track: track, MatchedWord: word}, nil
	}

	// Not found
	res, err := r.lib.RunLibraryQuery(ctx, itunes.LibraryQuery{Action: itunes.ActionList, Limit: SampleSize})
	if err != nil {
		return Outcome{}, fmt.Errorf("list sample: %w", err)
	}
	sample := model.Names(res.Tracks)
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	return Outcome{Kind: NotFound, Query: query, Sample: sample}, nil
}

// first returns the first track, in library order, whose name contains any term.
func (r *Resolver) first(ctx context.Context, terms []string, foldCase bool) (model.Track, bool, error) {
	res, err := r.lib.RunLibraryQuery(ctx, itunes.LibraryQuery{
		Action:   itunes.ActionSearch,
		Terms:    terms,
		FoldCase: foldCase,
	})
	if err != nil {
		return model.Track{}, false, err
	}
	if len(res.Tracks) == 0 {
		return model.Track{}, false, nil
	}
	r.logger.Debug("search matched",
		zap.Strings("terms", terms),
		zap.Int("matches", len(res.Tracks)),
		zap.String("first", res.Tracks[0].Name))
	return res.Tracks[0], true, nil
}

func (r *Resolver) play(ctx context.Context, track model.Track) error {
	if _, err := r.lib.RunLibraryQuery(ctx, itunes.LibraryQuery{Action: itunes.ActionPlay, TrackID: track.ID}); err != nil {
		return fmt.Errorf("play %q: %w", track.Name, err)
	}
	return nil
}

// caseVariants returns the query as typed, lowercased and uppercased, without
// duplicates.
func caseVariants(query string) []string {
	variants := []string{query}
	for _, v := range []string{strings.ToLower(query), strings.ToUpper(query)} {
		if !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}
	return variants
}

// candidateWords returns the distinct words of query longer than MinWordLength,
// in the order they first appear.
func candidateWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) <= MinWordLength || slices.Contains(words, w) {
			continue
		}
		words = append(words, w)
	}
	return words
}
