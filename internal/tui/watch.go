// Package tui implements the live "watch" view of a running daemon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomoclock/internal/ipc"
	"pomoclock/internal/pomodoro"
)

// Client is the subset of ipc.Client the view needs.
type Client interface {
	Status(ctx context.Context) (ipc.StatusData, error)
	Call(ctx context.Context, name string, args interface{}) (ipc.StatusData, string, error)
}

const requestTimeout = 2 * time.Second

type pollMsg time.Time

type statusMsg struct {
	status  ipc.StatusData
	message string
}

type errMsg struct{ err error }

var (
	workColor  = lipgloss.Color("#E06C75")
	shortColor = lipgloss.Color("#98C379")
	longColor  = lipgloss.Color("#56B6C2")
	dimColor   = lipgloss.Color("#6C7086")

	clockStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Foreground(dimColor)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	pauseBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(dimColor).Padding(0, 1)
)

// Model polls the daemon and renders the countdown.
type Model struct {
	client   Client
	interval time.Duration

	status  ipc.StatusData
	loaded  bool
	message string
	err     error

	progress progress.Model
}

func New(client Client, interval time.Duration) Model {
	return Model{
		client:   client,
		interval: interval,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.poll())
}

func (m Model) poll() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m Model) fetch() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := client.Status(ctx)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg{status: status}
	}
}

func (m Model) call(name string, args interface{}) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, message, err := client.Call(ctx, name, args)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg{status: status, message: message}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "enter":
			return m, m.call(ipc.CmdToggle, nil)
		case "r":
			return m, m.call(ipc.CmdReset, nil)
		case "+", "=":
			return m, m.adjust(pomodoro.DurationStep)
		case "-", "_":
			return m, m.adjust(-pomodoro.DurationStep)
		}

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-4, 10), 60)

	case pollMsg:
		return m, tea.Batch(m.fetch(), m.poll())

	case statusMsg:
		m.status = msg.status
		m.loaded = true
		m.err = nil
		if msg.message != "" {
			m.message = msg.message
		}

	case errMsg:
		m.err = msg.err
	}
	return m, nil
}

func (m Model) adjust(delta int) tea.Cmd {
	if !m.loaded {
		return nil
	}
	return m.call(ipc.CmdAdjust, ipc.AdjustArgs{Mode: string(m.status.View.Mode), DeltaSeconds: delta})
}

func modeColor(mode pomodoro.Mode) lipgloss.Color {
	switch mode {
	case pomodoro.ModeShortBreak:
		return shortColor
	case pomodoro.ModeLongBreak:
		return longColor
	default:
		return workColor
	}
}

func (m Model) View() string {
	if !m.loaded {
		if m.err != nil {
			return errStyle.Render("Cannot reach daemon: "+m.err.Error()) + "\n" + helpStyle.Render("q quit") + "\n"
		}
		return "Connecting to daemon...\n"
	}

	v := m.status.View
	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(modeColor(v.Mode))

	header := labelStyle.Render(v.PhaseLabel)
	if !v.Running {
		header += " " + pauseBadge.Render("PAUSED")
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(clockStyle.Foreground(modeColor(v.Mode)).Render(v.FormattedTime) + "\n\n")
	b.WriteString(m.progress.ViewAs(v.ProgressPercent/100) + "\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("work %s · short %s · long %s",
		pomodoro.FormatClock(m.status.Durations.Work),
		pomodoro.FormatClock(m.status.Durations.ShortBreak),
		pomodoro.FormatClock(m.status.Durations.LongBreak))) + "\n")
	if m.message != "" {
		b.WriteString(m.message + "\n")
	}
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString(helpStyle.Render("space start/pause · r reset · +/- adjust · q quit") + "\n")
	return b.String()
}

// Run starts the full-screen program.
func Run(client Client, interval time.Duration) error {
	_, err := tea.NewProgram(New(client, interval), tea.WithAltScreen()).Run()
	return err
}
