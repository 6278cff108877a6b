package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arijitghosal03/Campus-Konnect-sub000/internal/interview"
)

// FetchFunc loads the current summary of the watched room.
type FetchFunc func(ctx context.Context) (*interview.Summary, error)

type summaryMsg struct {
	summary *interview.Summary
	err     error
	at      time.Time
}

type pollMsg struct{}

// WatchModel is a live view of one room, refreshed by polling.
type WatchModel struct {
	roomID   string
	fetch    FetchFunc
	interval time.Duration
	spinner  spinner.Model

	summary  *interview.Summary
	err      error
	updated  time.Time
	quitting bool
}

func NewWatchModel(roomID string, interval time.Duration, fetch FetchFunc) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &WatchModel{
		roomID:   roomID,
		fetch:    fetch,
		interval: interval,
		spinner:  s,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m *WatchModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sum, err := m.fetch(ctx)
		return summaryMsg{summary: sum, err: err, at: time.Now()}
	}
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case summaryMsg:
		m.err = msg.err
		if msg.err == nil {
			m.summary = msg.summary
		}
		m.updated = msg.at
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })

	case pollMsg:
		return m, m.fetchCmd()
	}
	return m, nil
}

func (m *WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s Watching room %s\n\n", IconRoom, BoldStyle.Render(m.roomID))

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), ErrorStyle.Render(m.err.Error()))
	case m.summary == nil:
		fmt.Fprintf(&b, "%s Loading...\n", m.spinner.View())
	default:
		b.WriteString(RoomSummaryView(*m.summary))
		b.WriteString("\n")
	}

	if !m.updated.IsZero() {
		b.WriteString(MutedStyle.Render("Updated " + m.updated.Local().Format(time.TimeOnly)))
		b.WriteString("\n")
	}
	b.WriteString(MutedStyle.Render("Press q to quit"))
	return b.String()
}

// RunWatch runs the live view until the user quits.
func RunWatch(m *WatchModel) error {
	_, err := tea.NewProgram(m).Run()
	return err
}
