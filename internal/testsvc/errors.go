package testsvc

import (
	"encoding/json"
	"fmt"
)

// ErrSessionExpired indicates the backend rejected the bearer credential
// (401). The user must log in again; retrying is pointless.
type ErrSessionExpired struct {
	Err error
}

func (e *ErrSessionExpired) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session expired: %v", e.Err)
	}
	return "session expired, please log in again"
}

func (e *ErrSessionExpired) Unwrap() error { return e.Err }

// ErrServiceUnavailable indicates the Test Service is down, unreachable, or
// overloaded (network error, 5xx, 429). Retryable.
type ErrServiceUnavailable struct {
	StatusCode int
	Err        error
}

func (e *ErrServiceUnavailable) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("test service unavailable (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("test service unreachable: %v", e.Err)
}

func (e *ErrServiceUnavailable) Unwrap() error { return e.Err }

// ErrBadPayload indicates the service returned JSON that does not conform
// to the expected shape. Not retryable; fails loudly with the raw content
// attached for diagnosis.
type ErrBadPayload struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrBadPayload) Error() string {
	return fmt.Sprintf("malformed test service payload: %v", e.Err)
}

func (e *ErrBadPayload) Unwrap() error { return e.Err }

// ErrRequestRejected indicates a non-retryable 4xx response.
type ErrRequestRejected struct {
	StatusCode int
	Message    string
}

func (e *ErrRequestRejected) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("test service rejected request (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("test service rejected request (status %d)", e.StatusCode)
}
