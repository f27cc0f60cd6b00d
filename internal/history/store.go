// Package history keeps a local record of completed diagnostic attempts.
// It is a convenience cache for the history screen and the history
// command; the backend remains the source of truth for grades.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// AttemptRecord is one completed diagnostic attempt.
type AttemptRecord struct {
	ID           string    `db:"id"`
	SessionID    string    `db:"session_id"`
	Department   string    `db:"department"`
	Score        float64   `db:"score"`
	CorrectCount int       `db:"correct_count"`
	WrongCount   int       `db:"wrong_count"`
	Level        string    `db:"level"`
	TotalTimeMs  int64     `db:"total_time_ms"`
	CompletedAt  time.Time `db:"completed_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id            TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	department    TEXT NOT NULL,
	score         REAL NOT NULL,
	correct_count INTEGER NOT NULL,
	wrong_count   INTEGER NOT NULL,
	level         TEXT NOT NULL,
	total_time_ms INTEGER NOT NULL,
	completed_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_completed_at ON attempts (completed_at DESC);
`

// Store is the sqlite-backed attempt store.
type Store struct {
	db *sqlx.DB
}

// Open creates a Store at dsn, applying pragmas and the schema.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAttempt inserts a completed attempt. Saving the same attempt id
// twice (a retried submit that succeeded both times server-side) is a
// no-op rather than an error.
func (s *Store) SaveAttempt(ctx context.Context, rec AttemptRecord) error {
	const q = `
		INSERT OR IGNORE INTO attempts
			(id, session_id, department, score, correct_count, wrong_count, level, total_time_ms, completed_at)
		VALUES
			(:id, :session_id, :department, :score, :correct_count, :wrong_count, :level, :total_time_ms, :completed_at)`
	if _, err := s.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

// ListAttempts returns attempts newest-first, up to limit (0 = all).
func (s *Store) ListAttempts(ctx context.Context, limit int) ([]AttemptRecord, error) {
	q := `SELECT * FROM attempts ORDER BY completed_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var recs []AttemptRecord
	if err := s.db.SelectContext(ctx, &recs, q, args...); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return recs, nil
}

// BestScore returns the highest score recorded for a department, and
// whether any attempt exists.
func (s *Store) BestScore(ctx context.Context, department string) (float64, bool, error) {
	var scores []float64
	const q = `SELECT score FROM attempts WHERE department = ? ORDER BY score DESC LIMIT 1`
	if err := s.db.SelectContext(ctx, &scores, q, department); err != nil {
		return 0, false, fmt.Errorf("best score: %w", err)
	}
	if len(scores) == 0 {
		return 0, false, nil
	}
	return scores[0], true, nil
}
