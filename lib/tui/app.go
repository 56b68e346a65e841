// Package tui provides an interactive terminal monitor for the connection
// pool daemon. It uses BubbleTea for the application framework and polls
// the daemon's status HTTP API.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultRefreshInterval is how often the monitor polls the daemon.
const DefaultRefreshInterval = 2 * time.Second

// Model is the main TUI application model.
type Model struct {
	client *apiClient

	width        int
	height       int
	ready        bool
	err          error
	lastRefresh  time.Time
	refreshEvery time.Duration

	health *HealthSnapshot

	spinner    spinner.Model
	statusView StatusModel
}

// Config holds TUI configuration.
type Config struct {
	// BaseURL is the daemon's status server address (e.g. "http://127.0.0.1:8080").
	BaseURL string
	// RefreshInterval is how often to refresh data.
	RefreshInterval time.Duration
}

// New creates a new TUI model.
func New(cfg Config) (*Model, error) {
	client, err := newAPIClient(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to status API: %w", err)
	}

	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		client:       client,
		refreshEvery: interval,
		spinner:      s,
		statusView:   NewStatusModel(),
	}, nil
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refreshData,
		tea.SetWindowTitle("adspool"),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			cmds = append(cmds, m.refreshData)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.statusView.SetDimensions(m.width, m.height-4)

	case refreshMsg:
		m.health = msg.health
		m.err = msg.err
		m.lastRefresh = time.Now()
		m.statusView.SetData(msg.health)
		cmds = append(cmds, tea.Tick(m.refreshEvery, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}))

	case tickMsg:
		cmds = append(cmds, m.refreshData)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return m.spinner.View() + " Starting..."
	}

	var b strings.Builder

	b.WriteString(styles.Title.Render("adspool monitor"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(m.statusView.View())
	b.WriteString("\n\n")

	footer := styles.HelpText.Render("q: quit • r: refresh")
	if !m.lastRefresh.IsZero() {
		footer += styles.StatusText.Render("  last update " + m.lastRefresh.Format("15:04:05"))
	}
	b.WriteString(footer)

	return b.String()
}

// refreshData fetches fresh data from the status API.
func (m Model) refreshData() tea.Msg {
	health, err := m.client.Health()
	return refreshMsg{health: health, err: err}
}

// Run starts the TUI event loop and blocks until the user quits.
func Run(cfg Config) error {
	m, err := New(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
