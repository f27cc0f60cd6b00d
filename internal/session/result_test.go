package session

import (
	"testing"
	"time"

	"github.com/campuson/campuson-cli/internal/testsvc"
)

func TestDeriveLevel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{95, "advanced"},
		{80, "advanced"},
		{79.9, "intermediate"},
		{60, "intermediate"},
		{45, "basic"},
		{10, "beginner"},
		{0, "beginner"},
	}
	for _, c := range cases {
		if got := DeriveLevel(c.score); got != c.want {
			t.Errorf("DeriveLevel(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestBuildResultBackfillsLocalData(t *testing.T) {
	s := startedState(t, 2)
	s.SelectAnswer("2", t0.Add(4*time.Second))
	s.Next(t0.Add(4 * time.Second))
	s.BeginSubmit(t0.Add(9 * time.Second))

	// Service echoes only correctness, no prompt/timing/selection.
	s.CompleteSubmit(&testsvc.SubmitResponse{
		Score:        50,
		CorrectCount: 1,
		WrongCount:   1,
		PerQuestion: []testsvc.QuestionResult{
			{QuestionID: "a", Correct: true, CorrectChoice: "2"},
			{QuestionID: "b", Correct: false, CorrectChoice: "1"},
		},
	}, t0.Add(10*time.Second))

	r := s.Result
	if r == nil {
		t.Fatal("expected result")
	}
	if r.Level != "basic" {
		t.Errorf("Level = %q, want derived fallback", r.Level)
	}
	if r.PerQuestion[0].Prompt == "" || r.PerQuestion[0].Number != 1 {
		t.Errorf("prompt/number not backfilled: %+v", r.PerQuestion[0])
	}
	if r.PerQuestion[0].ElapsedMs != (4 * time.Second).Milliseconds() {
		t.Errorf("ElapsedMs = %d, want local timing backfill", r.PerQuestion[0].ElapsedMs)
	}
	if r.PerQuestion[0].SelectedChoice == nil || *r.PerQuestion[0].SelectedChoice != "2" {
		t.Errorf("SelectedChoice = %v, want local answer backfill", r.PerQuestion[0].SelectedChoice)
	}
	if r.PerQuestion[1].SelectedChoice != nil {
		t.Errorf("unanswered question must stay nil, got %v", r.PerQuestion[1].SelectedChoice)
	}
	if r.Accuracy() != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", r.Accuracy())
	}
}

func TestServiceLevelWins(t *testing.T) {
	s := startedState(t, 2)
	s.BeginSubmit(t0.Add(time.Second))
	s.CompleteSubmit(&testsvc.SubmitResponse{Score: 90, Level: "placement-A"}, t0.Add(2*time.Second))

	if s.Result.Level != "placement-A" {
		t.Errorf("Level = %q, service label must win over derivation", s.Result.Level)
	}
}
