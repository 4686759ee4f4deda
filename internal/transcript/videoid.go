package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bareIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	urlIDRE  = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
)

// ParseVideoID accepts a bare video ID or any common YouTube URL form and
// returns the 11-character video ID.
func ParseVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if bareIDRE.MatchString(s) {
		return s, nil
	}
	if m := urlIDRE.FindStringSubmatch(s); len(m) == 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("invalid YouTube video ID or URL: %q", s)
}
