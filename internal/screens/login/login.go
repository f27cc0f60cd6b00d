// Package login implements the sign-in screen. A successful login stores
// the bearer token so later sessions start signed in.
package login

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/campuson/campuson-cli/internal/auth"
	"github.com/campuson/campuson-cli/internal/router"
	"github.com/campuson/campuson-cli/internal/screen"
	"github.com/campuson/campuson-cli/internal/testsvc"
	"github.com/campuson/campuson-cli/internal/ui/components"
	"github.com/campuson/campuson-cli/internal/ui/layout"
	"github.com/campuson/campuson-cli/internal/ui/theme"
)

// LoginService is the slice of the Test Service client this screen needs.
type LoginService interface {
	Login(ctx context.Context, username, password string) (*testsvc.LoginResponse, error)
}

type loginDoneMsg struct {
	Resp *testsvc.LoginResponse
	Err  error
}

const (
	focusUsername = iota
	focusPassword
)

// LoginScreen collects credentials and exchanges them for a token.
type LoginScreen struct {
	svc   LoginService
	creds *auth.Store

	username components.TextInput
	password components.TextInput
	focus    int

	submitting bool
	errMsg     string
}

var _ screen.Screen = (*LoginScreen)(nil)
var _ screen.KeyHintProvider = (*LoginScreen)(nil)

// New creates a login screen. creds may be nil; the token is then held
// only for this run.
func New(svc LoginService, creds *auth.Store) *LoginScreen {
	return &LoginScreen{
		svc:      svc,
		creds:    creds,
		username: components.NewTextInput("student id", false, 64),
		password: components.NewTextInput("password", true, 64),
	}
}

func (s *LoginScreen) Init() tea.Cmd {
	return s.username.Focus()
}

func (s *LoginScreen) Title() string {
	return "Sign In"
}

func (s *LoginScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LoginScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		return s.handleLoginDone(msg)

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}

		switch msg.String() {
		case "tab", "down":
			return s, s.setFocus(focusPassword)
		case "shift+tab", "up":
			return s, s.setFocus(focusUsername)
		case "enter":
			if s.focus == focusUsername {
				return s, s.setFocus(focusPassword)
			}
			return s.submit()
		}

		// Route typing to the focused field only.
		var cmd tea.Cmd
		if s.focus == focusUsername {
			s.username, cmd = s.username.Update(msg)
		} else {
			s.password, cmd = s.password.Update(msg)
		}
		s.errMsg = ""
		return s, cmd
	}

	// Non-key messages (cursor blink) go to both fields.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	s.username, cmd = s.username.Update(msg)
	cmds = append(cmds, cmd)
	s.password, cmd = s.password.Update(msg)
	cmds = append(cmds, cmd)
	return s, tea.Batch(cmds...)
}

func (s *LoginScreen) setFocus(target int) tea.Cmd {
	if s.focus == target {
		return nil
	}
	s.focus = target
	if target == focusUsername {
		s.password.Blur()
		return s.username.Focus()
	}
	s.username.Blur()
	return s.password.Focus()
}

func (s *LoginScreen) submit() (screen.Screen, tea.Cmd) {
	username := strings.TrimSpace(s.username.Value())
	password := s.password.Value()

	if username == "" || password == "" {
		s.errMsg = "enter your student id and password"
		return s, nil
	}

	s.submitting = true
	s.errMsg = ""
	svc := s.svc
	return s, func() tea.Msg {
		resp, err := svc.Login(context.Background(), username, password)
		return loginDoneMsg{Resp: resp, Err: err}
	}
}

func (s *LoginScreen) handleLoginDone(msg loginDoneMsg) (screen.Screen, tea.Cmd) {
	s.submitting = false

	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	if s.creds != nil {
		// A save failure is not fatal: the session proceeds signed in,
		// only persistence is lost.
		_ = s.creds.Save(auth.Credentials{
			Token:    msg.Resp.Token,
			Username: msg.Resp.Username,
			SavedAt:  time.Now(),
		})
	}

	return s, func() tea.Msg { return router.PopScreenMsg{} }
}

func (s *LoginScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(theme.Title.Width(width).Render("Sign in to CampusOn"))
	b.WriteString("\n\n")

	fieldLabel := func(label string, active bool) string {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if active {
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		}
		return style.Render(label)
	}

	var form strings.Builder
	form.WriteString(fieldLabel("Student ID", s.focus == focusUsername))
	form.WriteString("\n")
	form.WriteString(s.username.View())
	form.WriteString("\n\n")
	form.WriteString(fieldLabel("Password", s.focus == focusPassword))
	form.WriteString("\n")
	form.WriteString(s.password.View())

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Render(form.String())))
	b.WriteString("\n\n")

	switch {
	case s.submitting:
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Accent).
			Render("Signing in..."))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render(s.errMsg))
	}

	return b.String()
}
