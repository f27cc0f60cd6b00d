// Package testsvc is the HTTP client for the CampusOn Test Service. It is
// the only network boundary of the application: authentication, session
// start, submission, eligibility, and explanations all go through here.
package testsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the bearer credential attached to every
// authenticated request.
type TokenSource interface {
	Token() (string, error)
}

// Client talks JSON over HTTP to the Test Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource

	// retryWait is the pause before the single retry of a transient failure.
	retryWait time.Duration
}

// NewClient creates a Client. tokens may be nil for a client that only
// performs unauthenticated calls (login).
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		retryWait:  500 * time.Millisecond,
	}
}

// Login authenticates with username/password and returns the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.call(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &ErrBadPayload{Err: errors.New("login response carries no token")}
	}
	return &resp, nil
}

// StartSession opens a diagnostic session for the given subject and returns
// the server-issued session id and question set. The payload is validated
// against a schema before decoding; a malformed payload fails loudly.
func (c *Client) StartSession(ctx context.Context, subject string, timeLimitMinutes int) (*StartSessionResponse, error) {
	raw, err := c.callRaw(ctx, http.MethodPost, "/api/v1/diagnosis/sessions", StartSessionRequest{
		Subject:          subject,
		TimeLimitMinutes: timeLimitMinutes,
	}, true)
	if err != nil {
		return nil, err
	}

	if err := validateStartSession(raw); err != nil {
		return nil, err
	}

	var resp StartSessionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ErrBadPayload{Content: raw, Err: err}
	}
	return &resp, nil
}

// SubmitSession posts the consolidated answers and timings for grading.
func (c *Client) SubmitSession(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	path := fmt.Sprintf("/api/v1/diagnosis/sessions/%s/submit", url.PathEscape(req.SessionID))
	var resp SubmitResponse
	if err := c.call(ctx, http.MethodPost, path, req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckEligibility asks whether the signed-in student may take the given
// department's diagnostic test.
func (c *Client) CheckEligibility(ctx context.Context, department string) (*EligibilityResponse, error) {
	path := "/api/v1/diagnosis/eligibility?department=" + url.QueryEscape(department)
	var resp EligibilityResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Explanation fetches the expanded explanation for one question of a graded
// session, on demand.
func (c *Client) Explanation(ctx context.Context, sessionID, questionID string) (*ExplanationResponse, error) {
	path := fmt.Sprintf("/api/v1/diagnosis/sessions/%s/questions/%s/explanation",
		url.PathEscape(sessionID), url.PathEscape(questionID))
	var resp ExplanationResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// call performs a request and decodes the response body into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any, authed bool) error {
	raw, err := c.callRaw(ctx, method, path, body, authed)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrBadPayload{Content: raw, Err: err}
	}
	return nil
}

// callRaw performs a request with the retry-once policy and returns the
// raw response body. Transient failures (network errors, 5xx, 429) are
// retried exactly once; everything else is returned immediately.
func (c *Client) callRaw(ctx context.Context, method, path string, body any, authed bool) (json.RawMessage, error) {
	raw, err := c.doOnce(ctx, method, path, body, authed)
	if err == nil || !isTransient(err) {
		return raw, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryWait):
	}

	return c.doOnce(ctx, method, path, body, authed)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, authed bool) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		if c.tokens == nil {
			return nil, &ErrSessionExpired{Err: errors.New("no token source configured")}
		}
		token, err := c.tokens.Token()
		if err != nil {
			return nil, &ErrSessionExpired{Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ErrServiceUnavailable{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrServiceUnavailable{Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &ErrSessionExpired{}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &ErrServiceUnavailable{StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	case resp.StatusCode >= 400:
		return nil, &ErrRequestRejected{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	return data, nil
}

// isTransient reports whether the error qualifies for the single retry.
// Context errors and auth failures never do.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var unavail *ErrServiceUnavailable
	return errors.As(err, &unavail)
}

// errorMessage extracts a human-readable message from an error body, when
// the service sends one.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
