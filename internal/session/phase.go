package session

// Phase is the coarse state of a diagnostic session. Transitions are
// strictly forward; Restart is the only backward edge and discards all
// session-scoped state.
type Phase int

const (
	// PhaseIntro shows instructions and waits for the start command.
	PhaseIntro Phase = iota

	// PhaseChecking validates department eligibility before starting.
	// Optional entry state; departments without an eligibility requirement
	// skip it.
	PhaseChecking

	// PhaseTesting serves questions against the countdown.
	PhaseTesting

	// PhaseGrading waits for the submission response. Answer mutation and
	// timer ticking are frozen.
	PhaseGrading

	// PhaseResult displays the immutable graded result.
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseIntro:
		return "intro"
	case PhaseChecking:
		return "checking"
	case PhaseTesting:
		return "testing"
	case PhaseGrading:
		return "grading"
	case PhaseResult:
		return "result"
	}
	return "unknown"
}
