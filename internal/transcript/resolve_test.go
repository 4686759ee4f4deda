package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTrack(t *testing.T) {
	tracks := []Track{
		{LanguageCode: "de", BaseURL: "de"},
		{LanguageCode: "en", Generated: true, BaseURL: "en-asr"},
		{LanguageCode: "en", BaseURL: "en"},
		{LanguageCode: "fr", Generated: true, BaseURL: "fr-asr"},
	}

	tests := []struct {
		name         string
		langs        []string
		wantURL      string
		wantFallback bool
	}{
		{"manual preferred over generated", []string{"en"}, "en", false},
		{"order of preference", []string{"fr", "en"}, "fr-asr", false},
		{"skips missing languages", []string{"es", "de"}, "de", false},
		{"falls back to first available", []string{"ja"}, "de", true},
		{"no preferences falls back", nil, "de", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveTrack(tracks, tt.langs)
			assert.True(t, res.OK)
			assert.Equal(t, tt.wantURL, res.Track.BaseURL)
			assert.Equal(t, tt.wantFallback, res.Fallback)
		})
	}
}

func TestResolveTrack_NoTracks(t *testing.T) {
	res := ResolveTrack(nil, []string{"en"})
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Reason)
}
