package diagnostic

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	sess "github.com/campuson/campuson-cli/internal/session"
	"github.com/campuson/campuson-cli/internal/ui/components"
	"github.com/campuson/campuson-cli/internal/ui/theme"
)

func (s *DiagnosticScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.showingQuitConfirm {
		return renderQuitConfirm(width)
	}

	switch s.state.Phase {
	case sess.PhaseChecking:
		return renderChecking(width)
	case sess.PhaseIntro:
		return s.renderIntro(width)
	case sess.PhaseTesting:
		return s.renderTesting(width)
	case sess.PhaseGrading:
		return renderGrading(width)
	}
	return ""
}

// renderIntro shows the department briefing before the test starts.
func (s *DiagnosticScreen) renderIntro(width int) string {
	dept := s.state.Department

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render(dept.Name + " Diagnostic Test"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Find your starting level"))
	b.WriteString("\n\n")

	var card strings.Builder
	card.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(
		fmt.Sprintf("Questions     %d", dept.QuestionCount)))
	card.WriteString("\n")
	card.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(
		fmt.Sprintf("Time limit    %d minutes", dept.TimeLimitMinutes)))
	if len(dept.Objectives) > 0 {
		card.WriteString("\n\nCovers:")
		for _, obj := range dept.Objectives {
			card.WriteString("\n")
			card.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("  • " + obj))
		}
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Render(card.String())))
	b.WriteString("\n\n")

	note := "The timer starts as soon as the questions load.\n" +
		"Unanswered questions are submitted as blank when time runs out."
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(note))
	b.WriteString("\n\n")

	if s.starting {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Accent).
			Render("Loading questions..."))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Primary).
			Bold(true).
			Render("Press Enter to begin"))
	}

	return b.String()
}

// renderTesting is the main question view: timer line, prompt, choices,
// and the completion bar.
func (s *DiagnosticScreen) renderTesting(width int) string {
	state := s.state
	q := state.Current()
	if q == nil {
		return ""
	}

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Question %d of %d", state.Nav.Index()+1, state.Nav.Count()))

	timerStyle := lipgloss.NewStyle().Foreground(theme.Accent)
	if state.Remaining < time.Minute {
		timerStyle = lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
	}
	infoRight := timerStyle.Render(formatClock(state.Remaining))

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	if s.submitErr != "" {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("Submission failed: " + s.submitErr))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Your answers are intact. Press Enter on the last question to retry."))
		b.WriteString("\n\n")
	}

	if q.Domain != "" {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("[" + q.Domain + "]"))
		b.WriteString("\n")
	}

	promptStyle := lipgloss.NewStyle().
		Width(min(width-8, 70)).
		Foreground(theme.Text).
		Bold(true)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, promptStyle.Render(q.Prompt)))
	b.WriteString("\n\n")

	if reason, flagged := state.Flagged[q.ID]; flagged {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("This question cannot be answered: " + reason))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("It will be submitted blank. Use ← → to move on."))
		b.WriteString("\n\n")
	} else {
		b.WriteString(s.renderChoices(width))
	}

	answered := state.CompletionCount()
	total := state.Nav.Count()
	bar := components.NewProgressBar(
		fmt.Sprintf("Answered %d/%d", answered, total),
		float64(answered)/float64(total),
		false,
		min(width-8, 60),
	)
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))

	return b.String()
}

func (s *DiagnosticScreen) renderChoices(width int) string {
	q := s.state.Current()
	selected := s.state.AnswerFor(q.ID)

	var b strings.Builder
	for _, c := range q.Choices {
		line := fmt.Sprintf("  %s) %s", c.Key, c.Text)
		if c.Key == selected {
			b.WriteString(theme.Selected.Render("▸ " + strings.TrimPrefix(line, "  ")))
		} else {
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("\nPress 1-%d to answer", len(q.Choices))))

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String()) + "\n"
}

func renderChecking(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Checking eligibility...")
}

func renderGrading(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Accent).
		Bold(true).
		Render("Grading your answers..."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("The AI tutor is analyzing your responses."))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Abandon this test?"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Your answers will be discarded."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("[Y] Yes, abandon"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, keep going"))
	return b.String()
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  %s\n\n  Press any key to go back.", errMsg))
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
