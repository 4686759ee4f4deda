package transcript

import (
	"regexp"
	"strings"
)

var (
	bracketRE   = regexp.MustCompile(`\[[^\]]*\]`)
	parenRE     = regexp.MustCompile(`\([^)]*\)`)
	timestampRE = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	spaceRE     = regexp.MustCompile(`\s+`)
)

// Clean turns raw caption text into prose. It removes [bracketed]
// annotations, (parenthetical) asides and bare M:SS / H:MM:SS timestamps,
// then collapses whitespace. Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	text := bracketRE.ReplaceAllString(raw, "")
	text = parenRE.ReplaceAllString(text, "")
	text = timestampRE.ReplaceAllString(text, "")
	text = spaceRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
