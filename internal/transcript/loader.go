package transcript

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Fetcher lists and downloads caption tracks from a captioning service.
type Fetcher interface {
	// ListTracks returns the caption tracks of a video. A video without
	// captions yields an *UnavailableError.
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	// FetchTrack downloads the cues of one track.
	FetchTrack(ctx context.Context, track Track) ([]Snippet, error)
}

// Loader fetches transcripts through a Fetcher, backed by a Cache.
type Loader struct {
	fetcher Fetcher
	cache   *Cache
}

// NewLoader creates a loader. A nil cache disables caching.
func NewLoader(f Fetcher, c *Cache) *Loader {
	return &Loader{fetcher: f, cache: c}
}

// Load returns the caption cues for a video. A cache hit skips the network
// entirely; a successful fetch is written back to the cache.
func (l *Loader) Load(ctx context.Context, videoID string, langs []string) ([]Snippet, error) {
	if l.cache != nil {
		if snippets, ok := l.cache.Get(videoID); ok {
			log.Debug().Str("video_id", videoID).Int("snippets", len(snippets)).Msg("transcript cache hit")
			return snippets, nil
		}
	}

	tracks, err := l.fetcher.ListTracks(ctx, videoID)
	if err != nil {
		return nil, asUnavailable(videoID, "unexpected error listing captions", err)
	}

	res := ResolveTrack(tracks, langs)
	if !res.OK {
		return nil, &UnavailableError{VideoID: videoID, Reason: res.Reason}
	}
	if res.Fallback {
		log.Info().Str("video_id", videoID).Strs("wanted", langs).Str("using", res.Track.LanguageCode).
			Msg("no transcript in preferred languages, using first available")
	}

	snippets, err := l.fetcher.FetchTrack(ctx, res.Track)
	if err != nil {
		return nil, asUnavailable(videoID, "fetching "+res.Track.LanguageCode+" captions failed", err)
	}

	if l.cache != nil {
		if err := l.cache.Put(videoID, snippets); err != nil {
			log.Warn().Err(err).Str("video_id", videoID).Msg("failed to cache transcript")
		}
	}
	return snippets, nil
}

// Text returns the transcript as a single string of joined cue texts.
func (l *Loader) Text(ctx context.Context, videoID string, langs []string) (string, error) {
	snippets, err := l.Load(ctx, videoID, langs)
	if err != nil {
		return "", err
	}
	return Join(snippets), nil
}

func asUnavailable(videoID, reason string, err error) error {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{VideoID: videoID, Reason: reason, Err: err}
}
