package session

import (
	"time"

	"github.com/campuson/campuson-cli/internal/testsvc"
)

// Result is the immutable outcome of a graded session: the service's
// grading response merged with locally recorded timings. Created once,
// only rendered afterward.
type Result struct {
	SessionID    string
	Department   string
	Score        float64
	CorrectCount int
	WrongCount   int
	Level        string
	AIAnalysis   string
	PerQuestion  []testsvc.QuestionResult
	TotalTime    time.Duration
	CompletedAt  time.Time
}

// Accuracy returns correct answers over total questions, in [0, 1].
func (r *Result) Accuracy() float64 {
	total := r.CorrectCount + r.WrongCount
	if total == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(total)
}

// buildResult merges the grading response with local session data. Missing
// per-question timings and the level label are filled in client-side.
func buildResult(s *State, resp *testsvc.SubmitResponse, now time.Time) *Result {
	r := &Result{
		SessionID:    s.SessionID,
		Department:   s.Department.Name,
		Score:        resp.Score,
		CorrectCount: resp.CorrectCount,
		WrongCount:   resp.WrongCount,
		Level:        resp.Level,
		AIAnalysis:   resp.AIAnalysis,
		PerQuestion:  resp.PerQuestion,
		TotalTime:    s.TotalElapsed,
		CompletedAt:  now,
	}
	if r.Level == "" {
		r.Level = DeriveLevel(r.Score)
	}

	// Backfill prompt, timing, and selection for services that echo only
	// correctness per question.
	byID := make(map[string]testsvc.Question, len(s.Questions))
	for _, q := range s.Questions {
		byID[q.ID] = q
	}
	for i := range r.PerQuestion {
		pq := &r.PerQuestion[i]
		q, ok := byID[pq.QuestionID]
		if !ok {
			continue
		}
		if pq.Prompt == "" {
			pq.Prompt = q.Prompt
		}
		if pq.Number == 0 {
			pq.Number = q.Number
		}
		if pq.Domain == "" {
			pq.Domain = q.Domain
		}
		if pq.ElapsedMs == 0 {
			pq.ElapsedMs = s.timings[q.ID].Milliseconds()
		}
		if pq.SelectedChoice == nil {
			if key, answered := s.answers[q.ID]; answered {
				k := key
				pq.SelectedChoice = &k
			}
		}
	}
	return r
}

// DeriveLevel maps a 0-100 score to the coarse level label used when the
// service omits one.
func DeriveLevel(score float64) string {
	switch {
	case score >= 80:
		return "advanced"
	case score >= 60:
		return "intermediate"
	case score >= 40:
		return "basic"
	default:
		return "beginner"
	}
}
