// Package tui is the interactive terminal front end: a sidebar to load a
// video and a main panel to ask questions about it.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tubeqa/internal/index"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewMain
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.p != nil {
		r.p.Send(msg)
	}
}

// Config holds configuration passed from the CLI layer.
type Config struct {
	Indexer *index.Indexer
	// OllamaURL and Models are used to check that required models are pulled.
	// An empty OllamaURL skips the check.
	OllamaURL string
	Models    []string
	K         int
	// WordDelay paces the word-by-word answer display.
	WordDelay time.Duration

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome welcomeModel
	main    mainModel
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	if cfg.WordDelay <= 0 {
		cfg.WordDelay = 80 * time.Millisecond
	}
	return Model{
		state:  ViewWelcome,
		config: cfg,
		main:   newMainModel(cfg),
	}
}

func (m Model) Init() tea.Cmd {
	return checkSetup(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.main.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc":
			if m.state == ViewWelcome {
				return m, tea.Quit
			}
		}

	case setupCheckMsg:
		m.welcome = m.welcome.Update(msg)
		m.main.videos = msg.videos
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case ViewWelcome:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.welcome.ready {
			m.state = ViewMain
			m.main.resize(m.width, m.height)
			return m, m.main.Init()
		}
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, nil
		}
		// Background messages still reach the main panel.
		m.main, cmd = m.main.Update(msg)
		return m, cmd

	case ViewMain:
		m.main, cmd = m.main.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewMain:
		return m.main.View()
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
