package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/campuson/campuson-cli/internal/config"
	"github.com/campuson/campuson-cli/internal/router"
	"github.com/campuson/campuson-cli/internal/screens/result"
	sess "github.com/campuson/campuson-cli/internal/session"
	"github.com/campuson/campuson-cli/internal/testsvc"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// mockService implements TestService for testing.
type mockService struct {
	eligible   bool
	eligReason string
	eligErr    error

	startResp *testsvc.StartSessionResponse
	startErr  error

	submitResp  *testsvc.SubmitResponse
	submitErr   error
	submitCalls int
	lastSubmit  testsvc.SubmitRequest
}

func (m *mockService) CheckEligibility(_ context.Context, _ string) (*testsvc.EligibilityResponse, error) {
	if m.eligErr != nil {
		return nil, m.eligErr
	}
	return &testsvc.EligibilityResponse{Eligible: m.eligible, Reason: m.eligReason}, nil
}

func (m *mockService) StartSession(_ context.Context, _ string, _ int) (*testsvc.StartSessionResponse, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.startResp, nil
}

func (m *mockService) SubmitSession(_ context.Context, req testsvc.SubmitRequest) (*testsvc.SubmitResponse, error) {
	m.submitCalls++
	m.lastSubmit = req
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitResp, nil
}

func (m *mockService) Explanation(_ context.Context, _, _ string) (*testsvc.ExplanationResponse, error) {
	return &testsvc.ExplanationResponse{Explanation: "because"}, nil
}

func testDept() config.Department {
	return config.Department{
		ID:               "computer-science",
		Name:             "Computer Science",
		QuestionCount:    3,
		TimeLimitMinutes: 1,
	}
}

func testQuestions(n int) []testsvc.Question {
	qs := make([]testsvc.Question, n)
	for i := range qs {
		qs[i] = testsvc.Question{
			ID:     fmt.Sprintf("q%d", i+1),
			Number: i + 1,
			Prompt: fmt.Sprintf("question %d", i+1),
			Choices: []testsvc.Choice{
				{Key: "1", Text: "alpha"},
				{Key: "2", Text: "beta"},
				{Key: "3", Text: "gamma"},
			},
		}
	}
	return qs
}

func okService() *mockService {
	return &mockService{
		eligible: true,
		startResp: &testsvc.StartSessionResponse{
			SessionID:        "sess-1",
			TimeLimitMinutes: 1,
			Questions:        testQuestions(3),
		},
		submitResp: &testsvc.SubmitResponse{Score: 67, CorrectCount: 2, WrongCount: 1},
	}
}

// startTesting drives a fresh screen through intro into the testing phase.
func startTesting(t *testing.T, svc *mockService) *DiagnosticScreen {
	t.Helper()
	s := New(svc, nil, testDept())

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("enter on intro should start the session")
	}
	s.Update(cmd())

	if s.state.Phase != sess.PhaseTesting {
		t.Fatalf("phase = %v after start, want testing", s.state.Phase)
	}
	return s
}

func TestEnterStartsSession(t *testing.T) {
	s := startTesting(t, okService())
	if s.state.SessionID != "sess-1" {
		t.Errorf("session id = %q", s.state.SessionID)
	}
	if s.state.Nav.Count() != 3 {
		t.Errorf("question count = %d, want 3", s.state.Nav.Count())
	}
}

func TestStartFailureStaysOnIntro(t *testing.T) {
	svc := okService()
	svc.startErr = errors.New("boom")
	s := New(svc, nil, testDept())

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	s.Update(cmd())

	if s.state.Phase != sess.PhaseIntro {
		t.Errorf("phase = %v, want intro", s.state.Phase)
	}
	if s.errMsg == "" {
		t.Error("start failure should be reported")
	}
}

func TestDigitSelectsAnswer(t *testing.T) {
	s := startTesting(t, okService())

	s.Update(keyPress('2'))
	if got := s.state.AnswerFor("q1"); got != "2" {
		t.Errorf("answer = %q, want 2", got)
	}

	// Out-of-range digit is ignored: three choices, key 4.
	s.Update(keyPress('4'))
	if got := s.state.AnswerFor("q1"); got != "2" {
		t.Errorf("answer after out-of-range digit = %q, want 2", got)
	}
}

func TestArrowsNavigate(t *testing.T) {
	s := startTesting(t, okService())

	s.Update(specialKey(tea.KeyRight))
	if s.state.Nav.Index() != 1 {
		t.Errorf("index = %d after right, want 1", s.state.Nav.Index())
	}
	s.Update(specialKey(tea.KeyLeft))
	if s.state.Nav.Index() != 0 {
		t.Errorf("index = %d after left, want 0", s.state.Nav.Index())
	}
}

func TestEnterOnLastQuestionSubmits(t *testing.T) {
	svc := okService()
	s := startTesting(t, svc)

	s.Update(specialKey(tea.KeyEnter)) // q1 -> q2
	s.Update(specialKey(tea.KeyEnter)) // q2 -> q3
	if !s.state.Nav.AtLast() {
		t.Fatal("should be on the last question")
	}

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if s.state.Phase != sess.PhaseGrading {
		t.Errorf("phase = %v, want grading", s.state.Phase)
	}
	if cmd == nil {
		t.Error("submit should produce the submission command")
	}
}

func TestTimeoutAutoSubmitsOnce(t *testing.T) {
	svc := okService()
	s := startTesting(t, svc)

	expired := time.Now().Add(2 * time.Minute)
	_, cmd := s.Update(timerTickMsg{Gen: s.tickGen, At: expired})
	if s.state.Phase != sess.PhaseGrading {
		t.Fatalf("phase = %v after timeout, want grading", s.state.Phase)
	}
	if cmd == nil {
		t.Fatal("timeout should trigger submission")
	}

	// A racing manual submit and a second tick are both no-ops.
	s.Update(specialKey(tea.KeyEnter))
	s.Update(timerTickMsg{Gen: s.tickGen, At: expired.Add(time.Second)})

	s.Update(submitDoneMsg{Resp: svc.submitResp})
	s.Update(gradingDelayMsg{Gen: s.submitGen})
	if s.state.Phase != sess.PhaseResult {
		t.Errorf("phase = %v, want result", s.state.Phase)
	}
}

func TestStaleTickDropped(t *testing.T) {
	s := startTesting(t, okService())

	expired := time.Now().Add(2 * time.Minute)
	s.Update(timerTickMsg{Gen: s.tickGen - 1, At: expired})

	if s.state.Phase != sess.PhaseTesting {
		t.Errorf("stale tick changed phase to %v", s.state.Phase)
	}
}

func TestResultHeldUntilGradingDelay(t *testing.T) {
	svc := okService()
	s := startTesting(t, svc)

	s.state.GoTo(2, time.Now())
	s.Update(specialKey(tea.KeyEnter))

	s.Update(submitDoneMsg{Resp: svc.submitResp})
	if s.state.Phase != sess.PhaseGrading {
		t.Fatalf("result shown before the grading delay elapsed")
	}

	_, cmd := s.Update(gradingDelayMsg{Gen: s.submitGen})
	if s.state.Phase != sess.PhaseResult {
		t.Fatalf("phase = %v after delay, want result", s.state.Phase)
	}
	if cmd == nil {
		t.Error("completing grading should hand off to the result screen")
	}
}

func TestStaleGradingDelayDroppedAfterRetry(t *testing.T) {
	svc := okService()
	s := startTesting(t, svc)

	s.state.GoTo(2, time.Now())
	s.Update(specialKey(tea.KeyEnter))
	firstGen := s.submitGen

	// First attempt fails; the user immediately retries.
	s.Update(submitDoneMsg{Err: errors.New("bad gateway")})
	s.Update(specialKey(tea.KeyEnter))

	// The delay armed for the failed attempt arrives late.
	s.Update(gradingDelayMsg{Gen: firstGen})
	s.Update(submitDoneMsg{Resp: svc.submitResp})
	if s.state.Phase != sess.PhaseGrading {
		t.Fatal("stale delay should not release the result early")
	}

	s.Update(gradingDelayMsg{Gen: s.submitGen})
	if s.state.Phase != sess.PhaseResult {
		t.Errorf("phase = %v after the current delay, want result", s.state.Phase)
	}
}

func TestFailedSubmitReturnsToTesting(t *testing.T) {
	svc := okService()
	s := startTesting(t, svc)

	s.Update(keyPress('1'))
	s.state.GoTo(2, time.Now())
	s.Update(specialKey(tea.KeyEnter))

	s.Update(submitDoneMsg{Err: errors.New("bad gateway")})

	if s.state.Phase != sess.PhaseTesting {
		t.Fatalf("phase = %v after failed submit, want testing", s.state.Phase)
	}
	if s.submitErr == "" {
		t.Error("submission failure should be shown")
	}
	if got := s.state.AnswerFor("q1"); got != "1" {
		t.Errorf("answer lost on failed submit: %q", got)
	}
}

func TestShowResultReplacesWithResultScreen(t *testing.T) {
	svc := okService()
	s := startTesting(t, svc)

	res := &sess.Result{SessionID: "sess-1", Department: "Computer Science"}
	msg := s.showResult(res)()

	rep, ok := msg.(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("showResult produced %T, want ReplaceScreenMsg", msg)
	}
	if _, ok := rep.Screen.(*result.ResultScreen); !ok {
		t.Errorf("replacement screen is %T", rep.Screen)
	}
}

func TestQuitConfirmFlow(t *testing.T) {
	s := startTesting(t, okService())

	s.Update(specialKey(tea.KeyEscape))
	if !s.showingQuitConfirm {
		t.Fatal("esc should open the quit confirmation")
	}

	s.Update(keyPress('n'))
	if s.showingQuitConfirm {
		t.Fatal("n should dismiss the confirmation")
	}
	if s.state.Phase != sess.PhaseTesting {
		t.Errorf("phase = %v after n, want testing", s.state.Phase)
	}

	s.Update(specialKey(tea.KeyEscape))
	_, cmd := s.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("y should pop the screen")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("y should produce a pop message")
	}
}

func TestHandlesEscOnlyDuringTest(t *testing.T) {
	s := New(okService(), nil, testDept())
	if s.HandlesEsc() {
		t.Error("intro should not capture esc")
	}

	s = startTesting(t, okService())
	if !s.HandlesEsc() {
		t.Error("testing phase should capture esc")
	}
}

func TestEligibilityDenied(t *testing.T) {
	dept := testDept()
	dept.RequiresEligibility = true
	svc := okService()
	svc.eligible = false
	svc.eligReason = "diagnostic already taken this term"

	s := New(svc, nil, dept)
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("eligibility-gated department should check on init")
	}
	s.Update(cmd())

	if s.errMsg != "diagnostic already taken this term" {
		t.Errorf("errMsg = %q", s.errMsg)
	}

	_, popCmd := s.Update(keyPress('x'))
	if popCmd == nil {
		t.Fatal("any key on the error view should go back")
	}
	if _, ok := popCmd().(router.PopScreenMsg); !ok {
		t.Error("error view should pop the screen")
	}
}

func TestEligibilityConfirmedMovesToIntro(t *testing.T) {
	dept := testDept()
	dept.RequiresEligibility = true

	s := New(okService(), nil, dept)
	cmd := s.Init()
	s.Update(cmd())

	if s.state.Phase != sess.PhaseIntro {
		t.Errorf("phase = %v after eligibility ok, want intro", s.state.Phase)
	}
}
