package testsvc

// Choice is one selectable option of a question. Keys are "1".."N" in
// display order.
type Choice struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is a single diagnostic question as served by the backend.
// Immutable once loaded for a session.
type Question struct {
	ID         string   `json:"id"`
	Number     int      `json:"number"`
	Prompt     string   `json:"prompt"`
	Choices    []Choice `json:"choices"`
	Domain     string   `json:"domain"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
}

// StartSessionRequest opens a new diagnostic session.
type StartSessionRequest struct {
	Subject          string `json:"subject"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
}

// StartSessionResponse carries the server-issued session and its questions.
type StartSessionResponse struct {
	SessionID        string     `json:"sessionId"`
	Questions        []Question `json:"questions"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
}

// SubmittedAnswer is one per-question entry of the submission payload.
// Choice is nil for unanswered questions.
type SubmittedAnswer struct {
	QuestionID string  `json:"questionId"`
	Choice     *string `json:"selectedChoiceKey"`
	ElapsedMs  int64   `json:"elapsedMs"`
}

// SubmitRequest is the consolidated submission for one session. AttemptID
// is a client-generated UUID so a retried submit is idempotent server-side.
type SubmitRequest struct {
	SessionID   string            `json:"sessionId"`
	AttemptID   string            `json:"attemptId"`
	Answers     []SubmittedAnswer `json:"answers"`
	TotalTimeMs int64             `json:"totalTimeMs"`
}

// QuestionResult is the graded outcome for one question.
type QuestionResult struct {
	QuestionID     string  `json:"questionId"`
	Number         int     `json:"number"`
	Prompt         string  `json:"prompt"`
	Correct        bool    `json:"correct"`
	CorrectChoice  string  `json:"correctChoiceKey"`
	SelectedChoice *string `json:"selectedChoiceKey"`
	ElapsedMs      int64   `json:"elapsedMs"`
	Domain         string  `json:"domain"`
	Difficulty     string  `json:"difficulty"`
}

// SubmitResponse is the grading result for a session. AIAnalysis is an
// opaque text payload produced by the backend; the client only displays it.
type SubmitResponse struct {
	Score        float64          `json:"score"`
	CorrectCount int              `json:"correctAnswers"`
	WrongCount   int              `json:"wrongAnswers"`
	Level        string           `json:"level"`
	AIAnalysis   string           `json:"aiAnalysis"`
	PerQuestion  []QuestionResult `json:"perQuestionResults"`
}

// LoginRequest authenticates a student.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// EligibilityResponse answers whether the student may take a department's
// diagnostic test.
type EligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// ExplanationResponse is the on-demand expanded explanation for one question.
type ExplanationResponse struct {
	QuestionID  string `json:"questionId"`
	Explanation string `json:"explanation"`
}
