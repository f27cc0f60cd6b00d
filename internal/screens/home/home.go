// Package home is the entry screen: the department list plus sign-in
// and history shortcuts.
package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/campuson/campuson-cli/internal/auth"
	"github.com/campuson/campuson-cli/internal/config"
	"github.com/campuson/campuson-cli/internal/history"
	"github.com/campuson/campuson-cli/internal/router"
	"github.com/campuson/campuson-cli/internal/screen"
	"github.com/campuson/campuson-cli/internal/screens/diagnostic"
	historyscreen "github.com/campuson/campuson-cli/internal/screens/history"
	"github.com/campuson/campuson-cli/internal/screens/login"
	"github.com/campuson/campuson-cli/internal/ui/components"
	"github.com/campuson/campuson-cli/internal/ui/theme"
)

// Service is the slice of the Test Service client the home flow needs:
// everything the diagnostic runs plus login.
type Service interface {
	diagnostic.TestService
	login.LoginService
}

// HomeScreen is the main menu of the application.
type HomeScreen struct {
	svc         Service
	creds       *auth.Store
	attempts    *history.Store
	departments []config.Department

	menu      components.Menu
	authIndex int
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen. Best scores are read once at build time;
// retaking a test rebuilds the screen on the way back.
func New(svc Service, creds *auth.Store, attempts *history.Store, departments []config.Department) *HomeScreen {
	h := &HomeScreen{
		svc:         svc,
		creds:       creds,
		attempts:    attempts,
		departments: departments,
	}

	items := make([]components.MenuItem, 0, len(departments)+3)
	for _, dept := range departments {
		d := dept
		items = append(items, components.MenuItem{
			Label:  d.Name,
			Detail: h.departmentDetail(d),
			Action: func() tea.Cmd {
				return h.openDiagnostic(d)
			},
		})
	}

	items = append(items, components.MenuItem{
		Label: "History",
		Action: func() tea.Cmd {
			if h.attempts == nil {
				return nil
			}
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: historyscreen.New(h.attempts)}
			}
		},
	})

	h.authIndex = len(items)
	items = append(items, components.MenuItem{}) // filled by refreshAuthItem
	items = append(items, components.MenuItem{
		Label:  "Exit",
		Action: func() tea.Cmd { return tea.Quit },
	})

	h.menu = components.NewMenu(items)
	h.refreshAuthItem()
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	// The sign-in item depends on stored credentials, which the login
	// screen changes behind our back.
	h.refreshAuthItem()

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	h.refreshAuthItem()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("CampusOn Diagnostic Tests"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Pick a department to find your starting level"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View()))
	return b.String()
}

// openDiagnostic starts a test, going through sign-in first when no
// valid token is stored.
func (h *HomeScreen) openDiagnostic(dept config.Department) tea.Cmd {
	if !h.signedIn() {
		return func() tea.Msg {
			return router.PushScreenMsg{Screen: login.New(h.svc, h.creds)}
		}
	}
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: diagnostic.New(h.svc, h.attempts, dept)}
	}
}

func (h *HomeScreen) departmentDetail(d config.Department) string {
	detail := fmt.Sprintf("%d questions, %d min", d.QuestionCount, d.TimeLimitMinutes)
	if h.attempts != nil {
		if best, ok, err := h.attempts.BestScore(context.Background(), d.Name); err == nil && ok {
			detail += fmt.Sprintf(", best %.0f", best)
		}
	}
	return detail
}

func (h *HomeScreen) refreshAuthItem() {
	if h.signedIn() {
		h.menu.Items[h.authIndex] = components.MenuItem{
			Label: "Sign out",
			Action: func() tea.Cmd {
				if h.creds != nil {
					_ = h.creds.Clear()
				}
				return nil
			},
		}
		return
	}
	h.menu.Items[h.authIndex] = components.MenuItem{
		Label: "Sign in",
		Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: login.New(h.svc, h.creds)}
			}
		},
	}
}

func (h *HomeScreen) signedIn() bool {
	if h.creds == nil {
		return false
	}
	c, err := h.creds.Load()
	return err == nil && !c.Expired(time.Now())
}
