// Package fetcher selects a transcript track for a video and normalizes it
// into the millisecond based result envelope.
package fetcher

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	caption "github.com/lincaiyong/youtube-transcript"
)

// NoVideoIDMessage is reported when the caller supplies no video ID.
const NoVideoIDMessage = "No video ID provided"

// Provider enumerates and fetches caption tracks. *caption.YouTube implements it.
type Provider interface {
	ListTracks(ctx context.Context, videoID string) (caption.TrackList, error)
	FetchTrack(ctx context.Context, track caption.Track) (*caption.Transcript, error)
}

// Error is the only error type returned by Fetch. Provider specific errors
// are flattened into Msg and kept in Cause for errors.Is checks.
type Error struct {
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrap(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Msg: err.Error(), Cause: err}
}

// Fetcher resolves one video ID to a transcript through a Provider.
type Fetcher struct {
	provider  Provider
	languages []string
	log       zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLanguages sets the ordered language preference list.
func WithLanguages(langs ...string) Option {
	return func(f *Fetcher) { f.languages = langs }
}

// WithLogger sets the fetcher logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New returns a Fetcher preferring en, en-US and en-GB unless WithLanguages is given.
func New(p Provider, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider:  p,
		languages: []string{"en", "en-US", "en-GB"},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch lists the tracks of videoID, picks the first preferred language that
// exists and falls back to the first track in provider order otherwise.
// Any failure is returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*caption.Transcript, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, &Error{Msg: NoVideoIDMessage}
	}

	log := f.log.With().Str("videoId", videoID).Logger()

	tracks, err := f.provider.ListTracks(ctx, videoID)
	if err != nil {
		log.Warn().Err(err).Msg("listing tracks failed")
		return nil, wrap(err)
	}
	if len(tracks) == 0 {
		return nil, &Error{Msg: "no transcripts available for video " + videoID}
	}

	track, err := tracks.Find(f.languages...)
	if err != nil {
		track = tracks[0]
		log.Debug().Strs("preferred", f.languages).Stringer("track", track).Msg("no preferred language, using first track")
	} else {
		log.Debug().Stringer("track", track).Msg("selected preferred track")
	}

	tr, err := f.provider.FetchTrack(ctx, track)
	if err != nil {
		log.Warn().Err(err).Str("language", track.LanguageCode).Msg("fetching track failed")
		return nil, wrap(err)
	}

	log.Debug().Int("entries", len(tr.Snippets)).Msg("transcript fetched")
	return tr, nil
}
