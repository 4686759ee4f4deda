package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache stores fetched snippets as <Dir>/<video_id>.json.
type Cache struct {
	Dir string
	// MaxAge bounds how long an entry is trusted. Zero means entries never
	// go stale.
	MaxAge time.Duration

	now func() time.Time
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string, maxAge time.Duration) *Cache {
	return &Cache{Dir: dir, MaxAge: maxAge, now: time.Now}
}

// Path returns the cache file for a video.
func (c *Cache) Path(videoID string) string {
	return filepath.Join(c.Dir, videoID+".json")
}

// Get returns the cached snippets for a video. Missing, expired or
// undecodable entries are reported as misses.
func (c *Cache) Get(videoID string) ([]Snippet, bool) {
	path := c.Path(videoID)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.MaxAge > 0 && c.now().Sub(info.ModTime()) > c.MaxAge {
		log.Debug().Str("video_id", videoID).Dur("age", c.now().Sub(info.ModTime())).Msg("transcript cache entry expired")
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		log.Debug().Str("path", path).Msg("transcript cache entry is not a list, ignoring")
		return nil, false
	}
	var snippets []Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("transcript cache entry unreadable, ignoring")
		return nil, false
	}
	return snippets, true
}

// Put writes snippets for a video, creating the cache directory if needed.
func (c *Cache) Put(videoID string, snippets []Snippet) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if snippets == nil {
		snippets = []Snippet{}
	}
	data, err := json.MarshalIndent(snippets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snippets: %w", err)
	}
	return os.WriteFile(c.Path(videoID), data, 0o644)
}

// List returns the video IDs with a cache entry, sorted.
func (c *Cache) List() ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
