// Package diagnostic implements the diagnostic-test screen: the session
// controller that walks a test through intro, testing, grading, and result,
// owning the timer, keyboard dispatch, and the calls to the Test Service.
package diagnostic

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/campuson/campuson-cli/internal/config"
	"github.com/campuson/campuson-cli/internal/history"
	"github.com/campuson/campuson-cli/internal/router"
	"github.com/campuson/campuson-cli/internal/screen"
	"github.com/campuson/campuson-cli/internal/screens/result"
	sess "github.com/campuson/campuson-cli/internal/session"
	"github.com/campuson/campuson-cli/internal/testsvc"
	"github.com/campuson/campuson-cli/internal/ui/layout"
)

// minGradingDisplay keeps the grading animation visible long enough to
// register, even when the service answers instantly.
const minGradingDisplay = 1500 * time.Millisecond

// TestService is the slice of the Test Service client this screen needs.
type TestService interface {
	CheckEligibility(ctx context.Context, department string) (*testsvc.EligibilityResponse, error)
	StartSession(ctx context.Context, subject string, timeLimitMinutes int) (*testsvc.StartSessionResponse, error)
	SubmitSession(ctx context.Context, req testsvc.SubmitRequest) (*testsvc.SubmitResponse, error)
	Explanation(ctx context.Context, sessionID, questionID string) (*testsvc.ExplanationResponse, error)
}

// DiagnosticScreen implements screen.Screen for one department's test.
type DiagnosticScreen struct {
	svc      TestService
	attempts *history.Store // nil disables local history
	state    *sess.State

	// errMsg is a setup failure: shown full-screen, any key goes back.
	errMsg string

	// submitErr is a submission failure banner shown over the testing view.
	submitErr string

	starting  bool
	tickGen   int
	submitGen int

	// grading bookkeeping: the result is shown once the response has
	// arrived and the minimum display delay has passed.
	delayDone     bool
	pendingResult *testsvc.SubmitResponse

	showingQuitConfirm bool
}

var _ screen.Screen = (*DiagnosticScreen)(nil)
var _ screen.KeyHintProvider = (*DiagnosticScreen)(nil)
var _ screen.EscHandler = (*DiagnosticScreen)(nil)

// New creates a diagnostic screen for the given department. attempts may
// be nil to disable local history recording.
func New(svc TestService, attempts *history.Store, dept config.Department) *DiagnosticScreen {
	return &DiagnosticScreen{
		svc:      svc,
		attempts: attempts,
		state:    sess.New(dept),
	}
}

func (s *DiagnosticScreen) Init() tea.Cmd {
	if s.state.Phase == sess.PhaseChecking {
		return s.checkEligibility()
	}
	return nil
}

func (s *DiagnosticScreen) Title() string {
	return s.state.Department.Name + " Diagnostic"
}

// HandlesEsc keeps the app from popping this screen mid-test; Esc opens
// the quit confirmation instead.
func (s *DiagnosticScreen) HandlesEsc() bool {
	return s.state.Phase == sess.PhaseTesting || s.state.Phase == sess.PhaseGrading
}

func (s *DiagnosticScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	}
	if s.showingQuitConfirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Abandon test"},
			{Key: "N", Description: "Keep going"},
		}
	}
	switch s.state.Phase {
	case sess.PhaseIntro:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case sess.PhaseTesting:
		return []layout.KeyHint{
			{Key: "1-5", Description: "Answer"},
			{Key: "←→", Description: "Move"},
			{Key: "Enter", Description: "Next / Submit"},
			{Key: "Esc", Description: "Abandon"},
		}
	}
	return nil
}

func (s *DiagnosticScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eligibilityMsg:
		return s.handleEligibility(msg)

	case sessionStartedMsg:
		return s.handleSessionStarted(msg)

	case timerTickMsg:
		return s.handleTimerTick(msg)

	case submitDoneMsg:
		return s.handleSubmitDone(msg)

	case gradingDelayMsg:
		// A delay armed for an earlier, failed submission must not
		// shorten the display window of the current one.
		if msg.Gen != s.submitGen {
			return s, nil
		}
		s.delayDone = true
		return s.maybeShowResult()

	case attemptSavedMsg:
		// Local history is best-effort; a failed write is not surfaced.
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s, nil
}

// handleKey is the input dispatcher. It is active only for the phase the
// key arrived in; testing-phase shortcuts do not leak into other phases.
func (s *DiagnosticScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	// Setup error state: any key goes back.
	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.showingQuitConfirm {
		switch key {
		case "y", "Y":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.showingQuitConfirm = false
		}
		return s, nil
	}

	switch s.state.Phase {
	case sess.PhaseIntro:
		if key == "enter" && !s.starting {
			s.starting = true
			return s, s.startSession()
		}

	case sess.PhaseTesting:
		return s.handleTestingKey(key)

	case sess.PhaseGrading:
		// Grading accepts no input; the re-entrancy guard in the state
		// machine would also reject a second submit.
	}

	return s, nil
}

func (s *DiagnosticScreen) handleTestingKey(key string) (screen.Screen, tea.Cmd) {
	now := time.Now()

	switch key {
	case "esc":
		s.showingQuitConfirm = true
		return s, nil
	case "left":
		s.state.Prev(now)
		return s, nil
	case "right":
		s.state.Next(now)
		return s, nil
	case "enter":
		if s.state.Nav.AtLast() {
			return s.submit(now)
		}
		s.state.Next(now)
		return s, nil
	}

	// Digit keys select an answer, bounded by the current question's
	// choice count.
	if len(key) == 1 && key[0] >= '1' && key[0] <= '5' {
		q := s.state.Current()
		if q != nil && int(key[0]-'0') <= len(q.Choices) {
			s.submitErr = ""
			s.state.SelectAnswer(key, now)
		}
	}
	return s, nil
}

func (s *DiagnosticScreen) handleEligibility(msg eligibilityMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	if !msg.Eligible {
		reason := msg.Reason
		if reason == "" {
			reason = "you are not eligible for this diagnostic test"
		}
		s.errMsg = reason
		return s, nil
	}
	s.state.EligibilityConfirmed()
	return s, nil
}

func (s *DiagnosticScreen) handleSessionStarted(msg sessionStartedMsg) (screen.Screen, tea.Cmd) {
	s.starting = false

	// Stale response: the user may have abandoned back to intro already;
	// only act while still waiting there.
	if s.state.Phase != sess.PhaseIntro {
		return s, nil
	}

	if msg.Err != nil {
		// Setup failure is not auto-retried: report and stay on intro.
		s.errMsg = msg.Err.Error()
		return s, nil
	}

	limit := time.Duration(msg.Resp.TimeLimitMinutes) * time.Minute
	if err := s.state.Begin(msg.Resp.SessionID, msg.Resp.Questions, limit, time.Now()); err != nil {
		s.errMsg = err.Error()
		return s, nil
	}

	return s, s.startTickChain()
}

func (s *DiagnosticScreen) handleTimerTick(msg timerTickMsg) (screen.Screen, tea.Cmd) {
	// Drop ticks from a superseded chain or a finished phase.
	if msg.Gen != s.tickGen || s.state.Phase != sess.PhaseTesting {
		return s, nil
	}

	if s.state.Tick(msg.At) {
		// Timeout is a normal terminal trigger: exactly one auto-submit.
		return s.submit(msg.At)
	}
	return s, s.tickCmd()
}

// submit freezes the session and fires the submission request. The state
// machine's guard makes a second call a no-op while one is in flight.
func (s *DiagnosticScreen) submit(now time.Time) (screen.Screen, tea.Cmd) {
	req, ok := s.state.BeginSubmit(now)
	if !ok {
		return s, nil
	}

	s.submitErr = ""
	s.delayDone = false
	s.pendingResult = nil
	s.submitGen++
	gen := s.submitGen

	return s, tea.Batch(
		s.submitSession(req),
		tea.Tick(minGradingDisplay, func(time.Time) tea.Msg { return gradingDelayMsg{Gen: gen} }),
	)
}

func (s *DiagnosticScreen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	if s.state.Phase != sess.PhaseGrading {
		return s, nil
	}

	if msg.Err != nil {
		// Answers survive; the user retries from the testing view.
		s.state.SubmitFailed(time.Now())
		s.submitErr = msg.Err.Error()
		return s, s.startTickChain()
	}

	s.pendingResult = msg.Resp
	return s.maybeShowResult()
}

// maybeShowResult completes the session once both the grading response and
// the minimum display delay are in.
func (s *DiagnosticScreen) maybeShowResult() (screen.Screen, tea.Cmd) {
	if s.state.Phase != sess.PhaseGrading || s.pendingResult == nil || !s.delayDone {
		return s, nil
	}

	s.state.CompleteSubmit(s.pendingResult, time.Now())
	s.pendingResult = nil

	res := s.state.Result
	cmds := []tea.Cmd{s.showResult(res)}
	if s.attempts != nil {
		cmds = append(cmds, s.saveAttempt(res))
	}
	return s, tea.Batch(cmds...)
}

// showResult replaces this screen with the result presenter, so Esc from
// the result goes straight home. Restart builds a fresh screen: all
// session-scoped state is discarded and the flow re-enters at intro.
func (s *DiagnosticScreen) showResult(res *sess.Result) tea.Cmd {
	svc := s.svc
	attempts := s.attempts
	dept := s.state.Department
	sessionID := s.state.SessionID

	fetch := func(ctx context.Context, questionID string) (string, error) {
		resp, err := svc.Explanation(ctx, sessionID, questionID)
		if err != nil {
			return "", err
		}
		return resp.Explanation, nil
	}
	restart := func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: New(svc, attempts, dept)}
	}

	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: result.New(res, fetch, restart)}
	}
}

// checkEligibility asks the backend whether this department's test is open
// to the signed-in student.
func (s *DiagnosticScreen) checkEligibility() tea.Cmd {
	dept := s.state.Department.ID
	return func() tea.Msg {
		resp, err := s.svc.CheckEligibility(context.Background(), dept)
		if err != nil {
			return eligibilityMsg{Err: err}
		}
		return eligibilityMsg{Eligible: resp.Eligible, Reason: resp.Reason}
	}
}

// startSession opens the session and fetches the question set.
func (s *DiagnosticScreen) startSession() tea.Cmd {
	dept := s.state.Department
	return func() tea.Msg {
		resp, err := s.svc.StartSession(context.Background(), dept.ID, dept.TimeLimitMinutes)
		if err != nil {
			return sessionStartedMsg{Err: err}
		}
		return sessionStartedMsg{Resp: resp}
	}
}

func (s *DiagnosticScreen) submitSession(req testsvc.SubmitRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := s.svc.SubmitSession(context.Background(), req)
		if err != nil {
			return submitDoneMsg{Err: err}
		}
		return submitDoneMsg{Resp: resp}
	}
}

func (s *DiagnosticScreen) saveAttempt(res *sess.Result) tea.Cmd {
	store := s.attempts
	attemptID := s.state.AttemptID
	return func() tea.Msg {
		err := store.SaveAttempt(context.Background(), history.AttemptRecord{
			ID:           attemptID,
			SessionID:    res.SessionID,
			Department:   res.Department,
			Score:        res.Score,
			CorrectCount: res.CorrectCount,
			WrongCount:   res.WrongCount,
			Level:        res.Level,
			TotalTimeMs:  res.TotalTime.Milliseconds(),
			CompletedAt:  res.CompletedAt,
		})
		return attemptSavedMsg{Err: err}
	}
}

// startTickChain begins a new one-second tick chain, invalidating any
// previous chain.
func (s *DiagnosticScreen) startTickChain() tea.Cmd {
	s.tickGen++
	return s.tickCmd()
}

func (s *DiagnosticScreen) tickCmd() tea.Cmd {
	gen := s.tickGen
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg{Gen: gen, At: t}
	})
}
