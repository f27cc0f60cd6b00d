package diagnostic

import (
	"time"

	"github.com/campuson/campuson-cli/internal/testsvc"
)

// eligibilityMsg is sent when the department eligibility check completes.
type eligibilityMsg struct {
	Eligible bool
	Reason   string
	Err      error
}

// sessionStartedMsg is sent when the start-session call completes.
type sessionStartedMsg struct {
	Resp *testsvc.StartSessionResponse
	Err  error
}

// timerTickMsg is sent every second while testing. Gen identifies the tick
// chain; ticks from a stale chain are dropped.
type timerTickMsg struct {
	Gen int
	At  time.Time
}

// submitDoneMsg is sent when the submission call completes.
type submitDoneMsg struct {
	Resp *testsvc.SubmitResponse
	Err  error
}

// gradingDelayMsg is sent when the minimum grading-animation display time
// has elapsed. Gen identifies the submission attempt it belongs to; a
// delay from a superseded attempt is dropped.
type gradingDelayMsg struct {
	Gen int
}

// attemptSavedMsg confirms the local history write finished.
type attemptSavedMsg struct {
	Err error
}
