package tui

import (
	"context"
	"fmt"
	"strings"

	"tubeqa/internal/index"

	tea "github.com/charmbracelet/bubbletea"
)

type welcomeModel struct {
	ready     bool // true once the check has completed
	videos    []index.Video
	missing   []string
	ollamaErr error
	err       error
}

// setupCheckMsg is sent after checking Ollama and the index.
type setupCheckMsg struct {
	videos    []index.Video
	missing   []string
	ollamaErr error
	err       error
}

func checkSetup(cfg Config) tea.Cmd {
	return func() tea.Msg {
		var msg setupCheckMsg
		if cfg.Indexer != nil {
			msg.videos, msg.err = cfg.Indexer.Videos(context.Background())
		}
		if cfg.OllamaURL != "" && len(cfg.Models) > 0 {
			models, err := ListModels(cfg.OllamaURL)
			if err != nil {
				msg.ollamaErr = err
			} else {
				msg.missing = missingModels(models, cfg.Models)
			}
		}
		return msg
	}
}

func (m welcomeModel) Update(msg setupCheckMsg) welcomeModel {
	m.videos = msg.videos
	m.missing = msg.missing
	m.ollamaErr = msg.ollamaErr
	m.err = msg.err
	m.ready = true
	return m
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ tubeqa") + "\n"
	s += subtitleStyle.Render("  Ask questions about YouTube videos") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking setup...") + "\n"
		return s
	}

	switch {
	case m.ollamaErr != nil:
		s += errorStyle.Render("  ✗ Ollama unreachable") + "\n"
		s += dimStyle.Render("    "+m.ollamaErr.Error()) + "\n"
	case len(m.missing) > 0:
		s += warnStyle.Render("  ⚠ Missing models: "+strings.Join(m.missing, ", ")) + "\n"
		s += dimStyle.Render("    Run: ollama pull "+m.missing[0]) + "\n"
	default:
		s += successStyle.Render("  ✓ Models ready") + "\n"
	}

	if m.err != nil {
		s += errorStyle.Render("  ✗ "+m.err.Error()) + "\n"
	} else if len(m.videos) == 0 {
		s += dimStyle.Render("  No videos indexed yet") + "\n"
	} else {
		s += "\n" + listItemStyle.Render(fmt.Sprintf("  %d indexed video(s):", len(m.videos))) + "\n"
		for i, v := range m.videos {
			if i == 8 {
				s += dimStyle.Render(fmt.Sprintf("    … and %d more", len(m.videos)-i)) + "\n"
				break
			}
			s += dimStyle.Render(fmt.Sprintf("    %s  %d chunks", v.VideoID, v.Chunks)) + "\n"
		}
	}

	s += "\n"
	s += helpStyle.Render("  Press Enter to continue, q to quit") + "\n"
	return s
}
