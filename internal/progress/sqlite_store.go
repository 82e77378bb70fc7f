package progress

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps completion state in the step_progress table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "chronosec.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open progress database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS step_progress (
		session_id TEXT NOT NULL,
		step_id TEXT NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (session_id, step_id)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize progress schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SetCompleted(ctx context.Context, session, step string, done bool) error {
	var err error
	if done {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO step_progress (session_id, step_id, completed_at) VALUES (?, ?, ?)
			 ON CONFLICT(session_id, step_id) DO UPDATE SET completed_at = excluded.completed_at`,
			session, step, time.Now().UTC())
	} else {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM step_progress WHERE session_id = ? AND step_id = ?`, session, step)
	}
	if err != nil {
		return fmt.Errorf("update progress %s/%s: %w", session, step, err)
	}
	return nil
}

func (s *SQLiteStore) Completed(ctx context.Context, session string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT step_id FROM step_progress WHERE session_id = ?`, session)
	if err != nil {
		return nil, fmt.Errorf("read progress %s: %w", session, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		out[step] = true
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM step_progress WHERE session_id = ?`, session); err != nil {
		return fmt.Errorf("clear progress %s: %w", session, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
