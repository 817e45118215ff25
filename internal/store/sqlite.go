package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS task_history (
		id TEXT PRIMARY KEY,
		chat_id INTEGER NOT NULL,
		intent TEXT NOT NULL,
		email TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		course_code TEXT NOT NULL DEFAULT '',
		course_name TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_task_history_completed ON task_history(completed_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveTask(ctx context.Context, rec TaskRecord) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO task_history (id, chat_id, intent, email, full_name, course_code, course_name,
	                          attempts, outcome, message, created_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		chat_id=excluded.chat_id,
		intent=excluded.intent,
		email=excluded.email,
		full_name=excluded.full_name,
		course_code=excluded.course_code,
		course_name=excluded.course_name,
		attempts=excluded.attempts,
		outcome=excluded.outcome,
		message=excluded.message,
		created_at=excluded.created_at,
		completed_at=excluded.completed_at`,
		rec.ID, rec.ChatID, rec.Intent, rec.Email, rec.FullName, rec.CourseCode, rec.CourseName,
		rec.Attempts, string(rec.Outcome), rec.Message, rec.CreatedAt, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert task record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, chat_id, intent, email, full_name, course_code, course_name,
	       attempts, outcome, message, created_at, completed_at
	FROM task_history ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list task records: %w", err)
	}
	defer rows.Close()

	out := make([]TaskRecord, 0, limit)
	for rows.Next() {
		var rec TaskRecord
		var outcome string
		if err := rows.Scan(
			&rec.ID,
			&rec.ChatID,
			&rec.Intent,
			&rec.Email,
			&rec.FullName,
			&rec.CourseCode,
			&rec.CourseName,
			&rec.Attempts,
			&outcome,
			&rec.Message,
			&rec.CreatedAt,
			&rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task record: %w", err)
		}
		rec.Outcome = Outcome(outcome)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task records: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
