// Package store persists the audit trail of executed commands. The relay
// works fine with the in-memory backend; postgres or sqlite make the
// history survive restarts.
package store

import (
	"context"
	"strings"
	"time"
)

// Outcome is the terminal state of a task.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// TaskRecord is one finished task as the status API reports it.
type TaskRecord struct {
	ID          string    `json:"id"`
	ChatID      int64     `json:"chat_id"`
	Intent      string    `json:"intent"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	CourseCode  string    `json:"course_code,omitempty"`
	CourseName  string    `json:"course_name,omitempty"`
	Attempts    int       `json:"attempts"`
	Outcome     Outcome   `json:"outcome"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Store holds finished tasks. Writes are best-effort from the worker's
// point of view; a failed save never fails the task.
type Store interface {
	SaveTask(ctx context.Context, rec TaskRecord) error
	ListRecent(ctx context.Context, limit int) ([]TaskRecord, error)
	Close() error
}

// New picks the backend: postgres when a database URL is configured,
// sqlite when a file path is, bounded in-memory otherwise. The returned
// mode string feeds the health surface.
func New(ctx context.Context, databaseURL, sqlitePath string) (Store, string, error) {
	if strings.TrimSpace(databaseURL) != "" {
		s, err := NewPostgresStore(ctx, databaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, "postgres", nil
	}
	if strings.TrimSpace(sqlitePath) != "" {
		s, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite", nil
	}
	return NewMemoryStore(0), "memory", nil
}
