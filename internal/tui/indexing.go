package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"tubeqa/internal/index"
	"tubeqa/internal/transcript"
)

// loadProgressMsg is sent from the indexing goroutine on each phase change.
type loadProgressMsg struct {
	phase string
	done  int
	total int
}

// loadDoneMsg is sent when a video finished loading.
type loadDoneMsg struct {
	videoID string
	stats   *index.Stats
	videos  []index.Video
	err     error
}

// loadVideo fetches and indexes videoID, reporting progress through the
// program while it runs.
func loadVideo(cfg Config, videoID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		stats, err := cfg.Indexer.Index(ctx, videoID, func(phase string, done, total int) {
			cfg.program.send(loadProgressMsg{phase: phase, done: done, total: total})
		})
		if err != nil {
			return loadDoneMsg{videoID: videoID, err: err}
		}
		videos, err := cfg.Indexer.Videos(ctx)
		if err != nil {
			return loadDoneMsg{videoID: videoID, stats: stats, err: err}
		}
		return loadDoneMsg{videoID: videoID, stats: stats, videos: videos}
	}
}

// loadError turns an indexing failure into a short sidebar message.
func loadError(err error) string {
	var ue *transcript.UnavailableError
	if errors.As(err, &ue) {
		return "No transcript: " + ue.Reason
	}
	return fmt.Sprintf("Failed to load transcript: %v", err)
}

func progressLine(p loadProgressMsg) string {
	if p.phase == "" {
		return "Fetching and indexing transcript..."
	}
	if p.total > 1 {
		return fmt.Sprintf("%s %d/%d", p.phase, p.done, p.total)
	}
	return p.phase
}
