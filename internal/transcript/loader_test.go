package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	tracks    []Track
	listErr   error
	snippets  map[string][]Snippet
	fetchErr  error
	listCalls int
	fetched   []Track
}

func (f *fakeFetcher) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	f.listCalls++
	return f.tracks, f.listErr
}

func (f *fakeFetcher) FetchTrack(ctx context.Context, track Track) ([]Snippet, error) {
	f.fetched = append(f.fetched, track)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snippets[track.LanguageCode], nil
}

func TestLoader_FetchesAndCaches(t *testing.T) {
	ff := &fakeFetcher{
		tracks: []Track{{LanguageCode: "de"}, {LanguageCode: "en"}},
		snippets: map[string][]Snippet{
			"en": {{Text: "Hi [music] there"}, {Text: "(laughs) 00:05 ok"}, {Text: "bye"}},
		},
	}
	l := NewLoader(ff, NewCache(t.TempDir(), 0))
	ctx := context.Background()

	text, err := l.Text(ctx, "vid", []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, "Hi [music] there (laughs) 00:05 ok bye", text)
	assert.Equal(t, "Hi there ok bye", Clean(text))
	assert.Equal(t, 1, ff.listCalls)

	// Second load is served from the cache.
	_, err = l.Load(ctx, "vid", []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, 1, ff.listCalls)
}

func TestLoader_FallsBackToFirstTrack(t *testing.T) {
	ff := &fakeFetcher{
		tracks:   []Track{{LanguageCode: "de"}, {LanguageCode: "fr"}},
		snippets: map[string][]Snippet{"de": {{Text: "hallo"}}},
	}
	l := NewLoader(ff, nil)

	snippets, err := l.Load(context.Background(), "vid", []string{"en"})
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "de", ff.fetched[0].LanguageCode)
}

func TestLoader_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		ff   *fakeFetcher
	}{
		{"no tracks", &fakeFetcher{}},
		{"captions disabled", &fakeFetcher{listErr: &UnavailableError{VideoID: "vid", Reason: "captions are disabled"}}},
		{"network error", &fakeFetcher{listErr: errors.New("connection refused")}},
		{"fetch error", &fakeFetcher{tracks: []Track{{LanguageCode: "en"}}, fetchErr: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.ff, nil).Load(context.Background(), "vid", []string{"en"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTranscriptUnavailable)

			var ue *UnavailableError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, "vid", ue.VideoID)
		})
	}
}

func TestLoader_FailedFetchIsNotCached(t *testing.T) {
	cache := NewCache(t.TempDir(), 0)
	ff := &fakeFetcher{tracks: []Track{{LanguageCode: "en"}}, fetchErr: errors.New("boom")}
	_, err := NewLoader(ff, cache).Load(context.Background(), "vid", nil)
	require.Error(t, err)

	_, ok := cache.Get("vid")
	assert.False(t, ok)
}
