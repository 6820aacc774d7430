// Package tui provides a BubbleTea terminal volume control for sessions
// without a tray.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/volctl/internal/mixer"
	"github.com/jmylchreest/volctl/internal/tray"
	"github.com/jmylchreest/volctl/internal/ui"
)

const (
	commandTimeout = 2 * time.Second
	pageFactor     = 4
	maxBarWidth    = 60
)

// Options configures the TUI.
type Options struct {
	ui.Options
	PollInterval time.Duration
	Launch       ui.Launcher
}

// Model is the TUI model.
type Model struct {
	backend mixer.Backend
	opts    Options

	keys     KeyMap
	help     help.Model
	bar      progress.Model
	showHelp bool

	state  mixer.State
	loaded bool
	err    error
	width  int
}

type stateMsg struct {
	state mixer.State
	err   error
}

type tickMsg struct{}

type launchMsg struct{ err error }

// New creates a TUI model.
func New(backend mixer.Backend, opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.Launch == nil {
		opts.Launch = ui.StartCommand
	}
	return Model{
		backend: backend,
		opts:    opts,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init fetches the first state and starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick())
}

func (m Model) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	state, err := m.backend.State(ctx)
	return stateMsg{state: state, err: err}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// change applies a raw volume delta and reports the resulting state.
func (m Model) change(delta int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := m.backend.ChangeVolume(ctx, delta, mixer.Limit(m.opts.AllowExtra)); err != nil {
			return stateMsg{state: m.state, err: err}
		}
		state, err := m.backend.State(ctx)
		return stateMsg{state: state, err: err}
	}
}

func (m Model) toggleMute() tea.Cmd {
	muted := !m.state.Muted
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := m.backend.SetMuted(ctx, muted); err != nil {
			return stateMsg{state: m.state, err: err}
		}
		state, err := m.backend.State(ctx)
		return stateMsg{state: state, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		return m, nil

	case stateMsg:
		m.err = msg.err
		if msg.err == nil {
			m.state = msg.state
			m.loaded = true
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch, m.tick())

	case launchMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := ui.ScrollChange(-1, m.opts.WheelStep, m.opts.Rounding)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Up):
		return m, m.change(step)
	case key.Matches(msg, m.keys.Down):
		return m, m.change(-step)
	case key.Matches(msg, m.keys.PageUp):
		return m, m.change(step * pageFactor)
	case key.Matches(msg, m.keys.PageDown):
		return m, m.change(-step * pageFactor)
	case key.Matches(msg, m.keys.Mute):
		return m, m.toggleMute()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch
	case key.Matches(msg, m.keys.Mixer):
		args := m.opts.MixerCommand
		launch := m.opts.Launch
		return m, func() tea.Msg { return launchMsg{err: launch(args)} }
	}
	return m, nil
}

// View renders the model.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Volume") + "\n\n")

	if !m.loaded {
		b.WriteString(dimStyle.Render("reading sink state…") + "\n")
	} else {
		b.WriteString(renderState(m.state) + "\n")
		b.WriteString(m.bar.ViewAs(barFraction(m.state, m.opts.AllowExtra)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render("error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// renderState renders the icon name and percentage line.
func renderState(s mixer.State) string {
	percent := fmt.Sprintf("%3d%%", s.Percent())
	if s.Muted {
		return lipgloss.NewStyle().Strikethrough(true).Render(percent) + "  muted"
	}
	return percent + "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(tray.IconName(s))
}

// barFraction maps the volume onto [0, 1] relative to the active limit.
func barFraction(s mixer.State, allowExtra bool) float64 {
	f := float64(s.Volume) / float64(mixer.Limit(allowExtra))
	return max(0, min(f, 1))
}

// Run starts the TUI.
func Run(backend mixer.Backend, opts Options) error {
	p := tea.NewProgram(New(backend, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
