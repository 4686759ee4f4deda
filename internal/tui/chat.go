package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"tubeqa/internal/index"
	"tubeqa/internal/transcript"
)

const sidebarWidth = 34

type focusArea int

const (
	focusVideo focusArea = iota
	focusQuestion
)

type mainState int

const (
	stateIdle mainState = iota
	stateLoading
	stateAnswering
	stateStreaming
)

type mainModel struct {
	cfg        Config
	videoInput textinput.Model
	question   textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	renderer   *glamour.TermRenderer

	focus    focusArea
	state    mainState
	videoID  string
	progress loadProgressMsg
	status   string
	statusOK bool
	videos   []index.Video
	entries  []qaEntry
	words    []string
	shown    int

	width       int
	height      int
	initialized bool
}

type qaEntry struct {
	videoID  string
	question string
	answer   string
	sources  []int
	failed   bool
}

// answerMsg is sent when a question has been answered.
type answerMsg struct {
	answer *index.Answer
	err    error
}

// streamTickMsg reveals the next word of the current answer.
type streamTickMsg struct{}

func newMainModel(cfg Config) mainModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	vi := textinput.New()
	vi.Placeholder = "Video ID or URL"
	vi.CharLimit = 200
	vi.Focus()

	qi := textinput.New()
	qi.Placeholder = "Ask a question about the video..."
	qi.CharLimit = 2000

	return mainModel{
		cfg:        cfg,
		videoInput: vi,
		question:   qi,
		spinner:    sp,
		focus:      focusVideo,
		status:     "Enter a video and press Enter",
	}
}

func (m mainModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *mainModel) resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	m.width = width
	m.height = height

	mainWidth := max(width-sidebarWidth-1, 20)
	// Layout: viewport + status bar (1 line) + input (1 line) + gap (1 line).
	vpHeight := max(height-3, 5)
	m.viewport = viewport.New(mainWidth, vpHeight)
	m.videoInput.Width = sidebarWidth - 4
	m.question.Width = mainWidth - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(mainWidth-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
	m.refresh()
}

func askQuestion(cfg Config, videoID, question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := cfg.Indexer.Ask(context.Background(), videoID, question, cfg.K)
		return answerMsg{answer: ans, err: err}
	}
}

func streamTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return streamTickMsg{} })
}

func (m *mainModel) setFocus(f focusArea) {
	m.focus = f
	if f == focusVideo {
		m.question.Blur()
		m.videoInput.Focus()
	} else {
		m.videoInput.Blur()
		m.question.Focus()
	}
}

func (m *mainModel) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

func (m mainModel) busy() bool {
	return m.state == stateLoading || m.state == stateAnswering
}

func (m mainModel) Update(msg tea.Msg) (mainModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case loadProgressMsg:
		m.progress = msg
		return m, nil

	case loadDoneMsg:
		m.state = stateIdle
		m.progress = loadProgressMsg{}
		if msg.err != nil {
			m.setStatus(loadError(msg.err), false)
			return m, nil
		}
		m.videoID = msg.videoID
		if msg.videos != nil {
			m.videos = msg.videos
		}
		m.setStatus(fmt.Sprintf("Loaded %s (%d chunks)", msg.videoID, msg.stats.Chunks), true)
		m.setFocus(focusQuestion)
		return m, nil

	case answerMsg:
		if len(m.entries) == 0 {
			m.state = stateIdle
			return m, nil
		}
		last := &m.entries[len(m.entries)-1]
		if msg.err != nil {
			m.state = stateIdle
			last.answer = msg.err.Error()
			last.failed = true
			m.refresh()
			return m, nil
		}
		for _, c := range msg.answer.Chunks {
			last.sources = append(last.sources, c.Document.ChunkID)
		}
		m.words = strings.Fields(msg.answer.Text)
		m.shown = 0
		if len(m.words) == 0 {
			m.state = stateIdle
			m.refresh()
			return m, nil
		}
		m.state = stateStreaming
		m.refresh()
		return m, streamTick(m.cfg.WordDelay)

	case streamTickMsg:
		if m.state != stateStreaming || len(m.entries) == 0 {
			return m, nil
		}
		m.shown++
		m.entries[len(m.entries)-1].answer = strings.Join(m.words[:m.shown], " ")
		if m.shown >= len(m.words) {
			m.state = stateIdle
			m.words = nil
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, streamTick(m.cfg.WordDelay)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refresh()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyTab, tea.KeyShiftTab:
			if m.focus == focusVideo {
				m.setFocus(focusQuestion)
			} else {
				m.setFocus(focusVideo)
			}
			return m, nil

		case tea.KeyEnter:
			if m.busy() || m.state == stateStreaming {
				return m, nil
			}
			if m.focus == focusVideo {
				return m.submitVideo()
			}
			return m.submitQuestion()
		}
	}

	if m.focus == focusVideo {
		var cmd tea.Cmd
		m.videoInput, cmd = m.videoInput.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var cmd tea.Cmd
		m.question, cmd = m.question.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Scrolling.
	if m.initialized {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m mainModel) submitVideo() (mainModel, tea.Cmd) {
	raw := strings.TrimSpace(m.videoInput.Value())
	if raw == "" {
		m.setStatus("Please enter a valid YouTube video ID.", false)
		return m, nil
	}
	id, err := transcript.ParseVideoID(raw)
	if err != nil {
		m.setStatus(err.Error(), false)
		return m, nil
	}
	m.videoInput.SetValue(id)
	m.state = stateLoading
	m.progress = loadProgressMsg{}
	return m, tea.Batch(m.spinner.Tick, loadVideo(m.cfg, id))
}

func (m mainModel) submitQuestion() (mainModel, tea.Cmd) {
	q := strings.TrimSpace(m.question.Value())
	switch q {
	case "":
		return m, nil
	case "/exit", "/quit":
		return m, tea.Quit
	case "/clear":
		m.question.Reset()
		m.entries = nil
		m.refresh()
		return m, nil
	}
	if m.videoID == "" {
		m.setStatus("Please load a YouTube transcript first.", false)
		return m, nil
	}

	m.question.Reset()
	m.entries = append(m.entries, qaEntry{videoID: m.videoID, question: q})
	m.state = stateAnswering
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, askQuestion(m.cfg, m.videoID, q))
}

func (m *mainModel) refresh() {
	if !m.initialized {
		return
	}
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m mainModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return assistantMsgStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return assistantMsgStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m mainModel) renderEntries() string {
	if len(m.entries) == 0 {
		return dimStyle.Render("Load a video in the sidebar, then ask a question.\n\nTab switches focus. Commands: /clear, /exit")
	}

	var sb strings.Builder
	for i, e := range m.entries {
		sb.WriteString(userMsgStyle.Render("You: ") + e.question + "\n\n")
		last := i == len(m.entries)-1
		switch {
		case e.failed:
			sb.WriteString(errorStyle.Render("Error: "+e.answer) + "\n\n")
		case last && m.state == stateAnswering:
			sb.WriteString(m.spinner.View() + " " + dimStyle.Render("Generating answer...") + "\n")
		case last && m.state == stateStreaming:
			sb.WriteString(assistantMsgStyle.Render("Answer: "+e.answer+"▌") + "\n\n")
		default:
			sb.WriteString(m.renderMarkdown("**Answer:** "+e.answer) + "\n")
			if len(e.sources) > 0 {
				ids := make([]string, len(e.sources))
				for j, s := range e.sources {
					ids[j] = fmt.Sprint(s)
				}
				sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s · chunks %s", e.videoID, strings.Join(ids, ", "))) + "\n")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m mainModel) sidebarView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Load YouTube Transcript") + "\n\n")
	sb.WriteString(m.videoInput.View() + "\n\n")

	switch {
	case m.state == stateLoading:
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render(progressLine(m.progress)) + "\n")
	case m.statusOK:
		sb.WriteString(successStyle.Render("✓ "+m.status) + "\n")
	case m.videoID == "" && m.status != "":
		sb.WriteString(warnStyle.Render(m.status) + "\n")
	default:
		sb.WriteString(errorStyle.Render(m.status) + "\n")
	}

	if len(m.videos) > 0 {
		sb.WriteString("\n" + subtitleStyle.Render("Indexed") + "\n")
		for _, v := range m.videos {
			line := fmt.Sprintf("%s %3d", v.VideoID, v.Chunks)
			if v.VideoID == m.videoID {
				sb.WriteString(selectedStyle.Render("▸ "+line) + "\n")
			} else {
				sb.WriteString(listItemStyle.Render("  "+line) + "\n")
			}
		}
	}

	return sidebarStyle.
		Width(sidebarWidth).
		Height(max(m.height-2, 1)).
		Render(sb.String())
}

func (m mainModel) View() string {
	if !m.initialized {
		return ""
	}

	statusText := "idle"
	switch m.state {
	case stateLoading:
		statusText = "loading transcript..."
	case stateAnswering:
		statusText = "generating..."
	case stateStreaming:
		statusText = "answering..."
	}
	video := m.videoID
	if video == "" {
		video = "no video"
	}
	statusBar := statusBarStyle.
		Width(m.viewport.Width).
		Render(fmt.Sprintf(" tubeqa • %s • %s", video, statusText))

	panel := lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.question.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), " ", panel)
}
