package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuson/campuson-cli/internal/config"
	"github.com/campuson/campuson-cli/internal/testsvc"
)

// State is the runtime state of one diagnostic session. The diagnostic
// screen is its sole owner; other components only read it for rendering.
// All methods take explicit clock values so the machine stays deterministic
// under test.
type State struct {
	Department config.Department
	Phase      Phase

	// SessionID is issued by the Test Service at start.
	SessionID string

	// AttemptID is a client-generated UUID reused across submit retries so
	// the server can deduplicate.
	AttemptID string

	// Questions are immutable once loaded.
	Questions []testsvc.Question

	// Flagged maps question ids to the validation problem that makes them
	// unservable (e.g. an empty choice set). Flagged questions render as
	// flagged rows and are submitted unanswered; they never crash the view.
	Flagged map[string]string

	TimeLimit time.Duration
	StartedAt time.Time
	Remaining time.Duration

	Nav Navigator

	// answers maps question id to the selected choice key. Entries exist
	// only for questions the user interacted with; overwritten, never
	// removed, for the lifetime of the session.
	answers map[string]string

	// timings accumulates per-question active time, closed out at both
	// answer selection and navigation away (last write wins on the
	// zero-length remainder when both fire in the same tick).
	timings     map[string]time.Duration
	activeSince time.Time

	expired        bool
	submitInFlight bool

	// TotalElapsed is frozen at the submit that eventually succeeds.
	TotalElapsed time.Duration

	Result *Result
}

// New creates a session in its entry phase for the given department.
func New(dept config.Department) *State {
	phase := PhaseIntro
	if dept.RequiresEligibility {
		phase = PhaseChecking
	}
	return &State{
		Department: dept,
		Phase:      phase,
		Flagged:    make(map[string]string),
		answers:    make(map[string]string),
		timings:    make(map[string]time.Duration),
	}
}

// EligibilityConfirmed moves checking → intro once the backend approves.
func (s *State) EligibilityConfirmed() {
	if s.Phase == PhaseChecking {
		s.Phase = PhaseIntro
	}
}

// Begin transitions intro → testing with the server-issued session. It
// seeds the timer, resets answers and timings, flags invalid questions,
// and positions the navigator at 0.
func (s *State) Begin(sessionID string, questions []testsvc.Question, limit time.Duration, now time.Time) error {
	if s.Phase != PhaseIntro {
		return fmt.Errorf("cannot start a session from phase %s", s.Phase)
	}
	if len(questions) == 0 {
		return fmt.Errorf("session %s carries no questions", sessionID)
	}
	if limit <= 0 {
		return fmt.Errorf("session %s carries no time limit", sessionID)
	}

	s.SessionID = sessionID
	s.AttemptID = uuid.New().String()
	s.Questions = questions
	s.TimeLimit = limit
	s.StartedAt = now
	s.Remaining = limit
	s.Nav = NewNavigator(len(questions))
	s.answers = make(map[string]string)
	s.timings = make(map[string]time.Duration)
	s.Flagged = make(map[string]string)
	s.activeSince = now
	s.expired = false
	s.submitInFlight = false
	s.Result = nil

	for _, q := range questions {
		if len(q.Choices) == 0 {
			s.Flagged[q.ID] = "no answer choices"
		}
	}

	s.Phase = PhaseTesting
	return nil
}

// Current returns the question at the navigator position, or nil before
// any question set has been loaded.
func (s *State) Current() *testsvc.Question {
	if len(s.Questions) == 0 {
		return nil
	}
	return &s.Questions[s.Nav.Index()]
}

// GoTo navigates to question index i, closing out the active question's
// timing interval first.
func (s *State) GoTo(i int, now time.Time) {
	if s.Phase != PhaseTesting {
		return
	}
	s.closeTiming(now)
	s.Nav.GoTo(i)
}

// Next advances to the next question. No-op on the last.
func (s *State) Next(now time.Time) {
	s.GoTo(s.Nav.Index()+1, now)
}

// Prev moves to the previous question. No-op on the first.
func (s *State) Prev(now time.Time) {
	s.GoTo(s.Nav.Index()-1, now)
}

// SelectAnswer records a choice for the current question. Re-selecting the
// same choice is idempotent for completion purposes; a later selection
// overwrites an earlier one. Flagged questions and out-of-range keys are
// ignored.
func (s *State) SelectAnswer(choiceKey string, now time.Time) {
	if s.Phase != PhaseTesting {
		return
	}
	q := s.Current()
	if q == nil {
		return
	}
	if _, bad := s.Flagged[q.ID]; bad {
		return
	}
	valid := false
	for _, c := range q.Choices {
		if c.Key == choiceKey {
			valid = true
			break
		}
	}
	if !valid {
		return
	}

	s.closeTiming(now)
	s.answers[q.ID] = choiceKey
}

// AnswerFor returns the selected choice key for a question, or "" when
// unanswered.
func (s *State) AnswerFor(questionID string) string {
	return s.answers[questionID]
}

// CompletionCount returns the number of distinct answered questions.
func (s *State) CompletionCount() int {
	return len(s.answers)
}

// TimingFor returns the accumulated active time attributed to a question.
func (s *State) TimingFor(questionID string) time.Duration {
	return s.timings[questionID]
}

// Tick advances the countdown. It reports true exactly once, on the tick
// that crosses zero while testing; the caller must trigger auto-submission
// then. Ticks outside the testing phase are ignored.
func (s *State) Tick(now time.Time) (timedOut bool) {
	if s.Phase != PhaseTesting {
		return false
	}
	s.Remaining = s.TimeLimit - now.Sub(s.StartedAt)
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	if s.Remaining == 0 && !s.expired {
		s.expired = true
		return true
	}
	return false
}

// BeginSubmit freezes the session and assembles the submission payload:
// one entry per question, nil choice when unanswered, per-question elapsed
// time, and total elapsed time. It reports false when the session is not
// in the testing phase or a submission is already in flight (the
// re-entrancy guard: a racing second submit is ignored, not queued).
func (s *State) BeginSubmit(now time.Time) (testsvc.SubmitRequest, bool) {
	if s.Phase != PhaseTesting || s.submitInFlight {
		return testsvc.SubmitRequest{}, false
	}

	s.closeTiming(now)
	s.TotalElapsed = now.Sub(s.StartedAt)
	s.submitInFlight = true
	s.Phase = PhaseGrading

	req := testsvc.SubmitRequest{
		SessionID:   s.SessionID,
		AttemptID:   s.AttemptID,
		TotalTimeMs: s.TotalElapsed.Milliseconds(),
		Answers:     make([]testsvc.SubmittedAnswer, 0, len(s.Questions)),
	}
	for _, q := range s.Questions {
		entry := testsvc.SubmittedAnswer{
			QuestionID: q.ID,
			ElapsedMs:  s.timings[q.ID].Milliseconds(),
		}
		if key, ok := s.answers[q.ID]; ok {
			k := key
			entry.Choice = &k
		}
		req.Answers = append(req.Answers, entry)
	}
	return req, true
}

// SubmitFailed returns grading → testing after a failed submission. The
// answer store survives untouched so the user can retry without
// re-answering; the active-interval clock restarts at now.
func (s *State) SubmitFailed(now time.Time) {
	if s.Phase != PhaseGrading {
		return
	}
	s.Phase = PhaseTesting
	s.submitInFlight = false
	s.activeSince = now
}

// CompleteSubmit stores the graded result and moves grading → result.
func (s *State) CompleteSubmit(resp *testsvc.SubmitResponse, now time.Time) {
	if s.Phase != PhaseGrading {
		return
	}
	s.submitInFlight = false
	s.Result = buildResult(s, resp, now)
	s.Phase = PhaseResult
}

// Restart discards all session-scoped state and returns to the entry
// phase. The department configuration is the only survivor.
func (s *State) Restart() {
	*s = *New(s.Department)
}

// closeTiming attributes the elapsed active interval to the current
// question and restarts the interval clock.
func (s *State) closeTiming(now time.Time) {
	q := s.Current()
	if q == nil {
		return
	}
	d := now.Sub(s.activeSince)
	if d > 0 {
		s.timings[q.ID] += d
	}
	s.activeSince = now
}
