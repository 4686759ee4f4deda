package transcript

// Resolution is the outcome of picking a caption track. Exactly one of
// Track or Reason is meaningful: OK reports which.
type Resolution struct {
	Track Track
	OK    bool
	// Fallback is true when no preferred language matched and the first
	// available track was taken instead.
	Fallback bool
	Reason   string
}

// ResolveTrack picks a track for the given language preferences. Languages
// are tried in order; within a language, manually created tracks win over
// generated ones. When nothing matches, the first available track is used.
func ResolveTrack(tracks []Track, langs []string) Resolution {
	if len(tracks) == 0 {
		return Resolution{Reason: "no caption tracks"}
	}
	for _, lang := range langs {
		if t, ok := findTrack(tracks, lang); ok {
			return Resolution{Track: t, OK: true}
		}
	}
	return Resolution{Track: tracks[0], OK: true, Fallback: true}
}

func findTrack(tracks []Track, lang string) (Track, bool) {
	for _, t := range tracks {
		if t.LanguageCode == lang && !t.Generated {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return Track{}, false
}
