package result

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"

	"github.com/campuson/campuson-cli/internal/router"
	sess "github.com/campuson/campuson-cli/internal/session"
	"github.com/campuson/campuson-cli/internal/testsvc"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func strPtr(s string) *string { return &s }

func testResult() *sess.Result {
	return &sess.Result{
		SessionID:    "sess-1",
		Department:   "Nursing",
		Score:        72,
		CorrectCount: 18,
		WrongCount:   7,
		Level:        "intermediate",
		AIAnalysis:   "Strong on pharmacology, review anatomy.",
		TotalTime:    14 * time.Minute,
		PerQuestion: []testsvc.QuestionResult{
			{QuestionID: "q1", Number: 1, Prompt: "First question", Correct: true, CorrectChoice: "2", SelectedChoice: strPtr("2")},
			{QuestionID: "q2", Number: 2, Prompt: "Second question", Correct: false, CorrectChoice: "1", SelectedChoice: strPtr("3")},
			{QuestionID: "q3", Number: 3, Prompt: "Broken question", Correct: false, CorrectChoice: "1", SelectedChoice: nil},
		},
	}
}

func TestCursorMovesWithinBounds(t *testing.T) {
	s := New(testResult(), nil, nil)

	s.Update(specialKey(tea.KeyUp))
	if s.cursor != 0 {
		t.Errorf("cursor moved above first row: %d", s.cursor)
	}

	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyDown))
	s.Update(specialKey(tea.KeyDown))
	if s.cursor != 2 {
		t.Errorf("cursor = %d, want clamped to 2", s.cursor)
	}
}

func TestEscPopsToHome(t *testing.T) {
	s := New(testResult(), nil, nil)

	_, cmd := s.Update(specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("expected a command from esc")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("esc should pop the screen")
	}
}

func TestRestartKeyInvokesRestart(t *testing.T) {
	type restartedMsg struct{}
	s := New(testResult(), nil, func() tea.Msg { return restartedMsg{} })

	_, cmd := s.Update(keyPress('r'))
	if cmd == nil {
		t.Fatal("expected a command from r")
	}
	if _, ok := cmd().(restartedMsg); !ok {
		t.Error("r should invoke the restart hook")
	}
}

func TestRestartKeyIgnoredWithoutHook(t *testing.T) {
	s := New(testResult(), nil, nil)
	if _, cmd := s.Update(keyPress('r')); cmd != nil {
		t.Error("r without a restart hook should do nothing")
	}
}

func TestExplanationFetchedOnceAndCached(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, qid string) (string, error) {
		calls++
		return "because " + qid, nil
	}
	s := New(testResult(), fetch, nil)

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a fetch command")
	}
	s.Update(cmd())

	if calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", calls)
	}
	if s.explanations["q1"] != "because q1" {
		t.Errorf("explanation not stored: %q", s.explanations["q1"])
	}

	if _, cmd := s.Update(specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("second enter on the same question should serve the cache")
	}
}

func TestExplanationFetchErrorShown(t *testing.T) {
	fetch := func(_ context.Context, _ string) (string, error) {
		return "", errors.New("service unavailable")
	}
	s := New(testResult(), fetch, nil)

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	s.Update(cmd())

	if s.fetchErr == "" {
		t.Error("fetch error should be surfaced")
	}
	if !strings.Contains(s.View(100, 40), "service unavailable") {
		t.Error("view should show the fetch error")
	}
}

func TestViewShowsScoreLevelAndAnalysis(t *testing.T) {
	s := New(testResult(), nil, nil)
	out := s.View(100, 40)

	// 18 correct of 25 is 72% accuracy.
	for _, want := range []string{"Nursing", "72", "intermediate", "pharmacology", "Accuracy: 72%"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReviewTruncatesWidePromptByDisplayWidth(t *testing.T) {
	res := testResult()
	res.PerQuestion[0].Prompt = strings.Repeat("한국어 문제 지문", 12)
	s := New(res, nil, nil)

	out := s.renderReview(80)
	if !utf8.ValidString(out) {
		t.Fatal("review output contains invalid UTF-8")
	}
	if !strings.Contains(out, "한국어") {
		t.Error("truncated prompt should keep its leading runes")
	}
	if !strings.Contains(out, "...") {
		t.Error("over-long prompt should carry the truncation tail")
	}
}

func TestViewRendersUnansweredRow(t *testing.T) {
	s := New(testResult(), nil, nil)
	out := s.View(100, 40)

	// The unanswered question renders a dash rather than panicking on the
	// nil selection.
	if !strings.Contains(out, "—") {
		t.Error("unanswered question should render a placeholder selection")
	}
}

func TestNilResultRendersEmpty(t *testing.T) {
	s := New(nil, nil, nil)
	if s.View(80, 24) != "" {
		t.Error("nil result should render nothing")
	}
}
