// Package transcript fetches, caches and cleans YouTube caption transcripts.
package transcript

import (
	"errors"
	"fmt"
	"strings"
)

// Snippet is one caption cue. Start and Duration are in seconds and may be
// absent in cached data produced by other tools.
type Snippet struct {
	Text     string   `json:"text"`
	Start    *float64 `json:"start"`
	Duration *float64 `json:"duration"`
}

// Track is one caption track offered for a video.
type Track struct {
	LanguageCode string
	Name         string
	// Generated is true for automatic speech recognition tracks.
	Generated bool
	BaseURL   string
}

// ErrTranscriptUnavailable reports that no transcript could be obtained for
// a video: it has no captions, captions are disabled, or the video itself
// cannot be resolved.
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

// UnavailableError carries the video and the reason a transcript could not
// be obtained. It matches ErrTranscriptUnavailable with errors.Is.
type UnavailableError struct {
	VideoID string
	Reason  string
	Err     error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("transcript not available for video %s: %s", e.VideoID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Is(target error) bool { return target == ErrTranscriptUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

// Join concatenates the snippet texts with single spaces, skipping empty ones.
func Join(snippets []Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}
