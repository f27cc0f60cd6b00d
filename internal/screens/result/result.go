// Package result presents a graded diagnostic: score, level, the AI
// tutor's analysis, and a per-question review with on-demand explanations.
package result

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/campuson/campuson-cli/internal/router"
	"github.com/campuson/campuson-cli/internal/screen"
	sess "github.com/campuson/campuson-cli/internal/session"
	"github.com/campuson/campuson-cli/internal/ui/layout"
	"github.com/campuson/campuson-cli/internal/ui/theme"
)

// FetchExplanation loads the explanation text for one question.
type FetchExplanation func(ctx context.Context, questionID string) (string, error)

type explanationMsg struct {
	QuestionID string
	Text       string
	Err        error
}

// ResultScreen renders an already-graded session. The result itself is
// immutable; only the review cursor and fetched explanations change.
type ResultScreen struct {
	res     *sess.Result
	fetch   FetchExplanation
	restart func() tea.Msg

	cursor       int
	explanations map[string]string
	fetchErr     string
	fetching     bool
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a result screen. fetch may be nil to disable explanations;
// restart builds a fresh diagnostic when the user retakes the test.
func New(res *sess.Result, fetch FetchExplanation, restart func() tea.Msg) *ResultScreen {
	return &ResultScreen{
		res:          res,
		fetch:        fetch,
		restart:      restart,
		explanations: make(map[string]string),
	}
}

func (s *ResultScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultScreen) Title() string {
	return "Test Result"
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Review"},
	}
	if s.fetch != nil {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Explanation"})
	}
	if s.restart != nil {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Retake"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Home"})
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case explanationMsg:
		s.fetching = false
		if msg.Err != nil {
			s.fetchErr = msg.Err.Error()
			return s, nil
		}
		s.explanations[msg.QuestionID] = msg.Text
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg.String())
	}
	return s, nil
}

func (s *ResultScreen) handleKey(key string) (screen.Screen, tea.Cmd) {
	switch key {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case "r", "R":
		if s.restart != nil {
			return s, s.restart
		}

	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
			s.fetchErr = ""
		}

	case "down", "j":
		if s.cursor < len(s.res.PerQuestion)-1 {
			s.cursor++
			s.fetchErr = ""
		}

	case "enter":
		return s, s.loadExplanation()
	}
	return s, nil
}

// loadExplanation fetches the explanation for the question under the
// cursor, once; repeat requests serve the cached text.
func (s *ResultScreen) loadExplanation() tea.Cmd {
	if s.fetch == nil || s.fetching || s.cursor >= len(s.res.PerQuestion) {
		return nil
	}
	qid := s.res.PerQuestion[s.cursor].QuestionID
	if _, ok := s.explanations[qid]; ok {
		return nil
	}

	s.fetching = true
	s.fetchErr = ""
	fetch := s.fetch
	return func() tea.Msg {
		text, err := fetch(context.Background(), qid)
		return explanationMsg{QuestionID: qid, Text: text, Err: err}
	}
}

func (s *ResultScreen) View(width, height int) string {
	res := s.res
	if res == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(res.Department + " — Diagnostic Result"))
	b.WriteString("\n\n")

	scoreStyle := theme.Correct
	if res.Score < 40 {
		scoreStyle = theme.Incorrect
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(scoreStyle.Render(fmt.Sprintf("Score: %.0f", res.Score)) +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("  /100")))
	b.WriteString("\n")

	mins := int(res.TotalTime.Minutes())
	secs := int(res.TotalTime.Seconds()) % 60
	statsLine := fmt.Sprintf("Level: %s        Correct: %d        Wrong: %d        Accuracy: %.0f%%        Time: %d:%02d",
		res.Level, res.CorrectCount, res.WrongCount, res.Accuracy()*100, mins, secs)
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(statsLine))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 60)))

	if res.AIAnalysis != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("Tutor analysis")))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n")
		analysis := lipgloss.NewStyle().
			Width(min(width-8, 70)).
			Foreground(theme.Text).
			Render(res.AIAnalysis)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, analysis))
		b.WriteString("\n\n")
	}

	if len(res.PerQuestion) > 0 {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.TextDim).Render("Review")))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n\n")
		b.WriteString(s.renderReview(width))
	}

	if s.fetchErr != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("Could not load explanation: " + s.fetchErr))
	}

	return b.String()
}

func (s *ResultScreen) renderReview(width int) string {
	var b strings.Builder

	for i, pq := range s.res.PerQuestion {
		mark := theme.Incorrect.Render("✗")
		if pq.Correct {
			mark = theme.Correct.Render("✓")
		}

		chose := "—"
		if pq.SelectedChoice != nil {
			chose = *pq.SelectedChoice
		}

		// Truncate by display width, not bytes: prompts are routinely
		// multibyte and byte slicing would sever a rune.
		prompt := ansi.Truncate(pq.Prompt, 44, "...")

		line := fmt.Sprintf("  Q%-3d %s  %-44s  your: %s  key: %s",
			pq.Number, mark, prompt, chose, pq.CorrectChoice)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		prefix := "  "
		if i == s.cursor {
			style = theme.Selected
			prefix = "▸ "
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(prefix+strings.TrimPrefix(line, "  "))))
		b.WriteString("\n")

		if i == s.cursor {
			if text, ok := s.explanations[pq.QuestionID]; ok {
				exp := lipgloss.NewStyle().
					Width(min(width-12, 64)).
					Foreground(theme.TextDim).
					Render(text)
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
				b.WriteString("\n")
			} else if s.fetching {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Render("Loading explanation...")))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
