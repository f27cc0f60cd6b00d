// Package history lists past diagnostic attempts from the local store.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/campuson/campuson-cli/internal/history"
	"github.com/campuson/campuson-cli/internal/router"
	"github.com/campuson/campuson-cli/internal/screen"
	"github.com/campuson/campuson-cli/internal/ui/layout"
	"github.com/campuson/campuson-cli/internal/ui/theme"
)

const attemptLimit = 50

type attemptsLoadedMsg struct {
	Attempts []history.AttemptRecord
	Err      error
}

// HistoryScreen displays past diagnostic attempts, newest first.
type HistoryScreen struct {
	store    *history.Store
	attempts []history.AttemptRecord
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a history screen backed by the given store.
func New(store *history.Store) *HistoryScreen {
	return &HistoryScreen{store: store}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		attempts, err := s.store.ListAttempts(context.Background(), attemptLimit)
		return attemptsLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.attempts)-1 {
				s.selected++
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.attempts) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No attempts yet. Take a diagnostic test!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, a := range s.attempts {
		dateStr := a.CompletedAt.Format("Jan 02, 2006")
		mins := a.TotalTimeMs / 60000
		secs := a.TotalTimeMs / 1000 % 60
		total := a.CorrectCount + a.WrongCount

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %-24s  %.0f/100  %d/%d correct  %s  %d:%02d",
			prefix, dateStr, a.Department, a.Score, a.CorrectCount, total, a.Level, mins, secs)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}
