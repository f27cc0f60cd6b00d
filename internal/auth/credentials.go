// Package auth persists the bearer credential issued by the CampusOn
// backend and answers expiry questions about it. It is the single place
// session identity lives on disk; everything else receives a Store.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn indicates no stored credentials exist.
var ErrNotLoggedIn = errors.New("not logged in")

// Credentials is the stored bearer credential plus display metadata.
type Credentials struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	SavedAt  time.Time `json:"saved_at"`
}

// Expired reports whether the token's exp claim has passed. Tokens without
// a readable exp claim are treated as non-expiring; the server still gets
// the final say with a 401.
func (c Credentials) Expired(now time.Time) bool {
	if c.Token == "" {
		return true
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	// Unverified parse: the client only reads exp, it never trusts the token.
	if _, _, err := parser.ParseUnverified(c.Token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// Store reads and writes credentials at a fixed file path.
type Store struct {
	path string
}

// NewStore creates a credentials store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored credentials, or ErrNotLoggedIn if none exist.
func (s *Store) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNotLoggedIn
		}
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Token == "" {
		return Credentials{}, ErrNotLoggedIn
	}
	return creds, nil
}

// Save writes credentials to disk, readable only by the current user.
func (s *Store) Save(creds Credentials) error {
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now()
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes stored credentials. Clearing when none exist is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

// Token implements the testsvc token source: it returns the stored bearer
// token or ErrNotLoggedIn.
func (s *Store) Token() (string, error) {
	creds, err := s.Load()
	if err != nil {
		return "", err
	}
	return creds.Token, nil
}
