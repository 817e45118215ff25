package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initHistorySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initHistorySchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task_history (
			id TEXT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			intent TEXT NOT NULL,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			course_code TEXT NOT NULL DEFAULT '',
			course_name TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_task_history_completed ON task_history (completed_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init history schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveTask(ctx context.Context, rec TaskRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO task_history (
			id, chat_id, intent, email, full_name, course_code, course_name,
			attempts, outcome, message, created_at, completed_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
		)
		ON CONFLICT (id) DO UPDATE SET
			chat_id=EXCLUDED.chat_id,
			intent=EXCLUDED.intent,
			email=EXCLUDED.email,
			full_name=EXCLUDED.full_name,
			course_code=EXCLUDED.course_code,
			course_name=EXCLUDED.course_name,
			attempts=EXCLUDED.attempts,
			outcome=EXCLUDED.outcome,
			message=EXCLUDED.message,
			created_at=EXCLUDED.created_at,
			completed_at=EXCLUDED.completed_at`,
		rec.ID,
		rec.ChatID,
		rec.Intent,
		rec.Email,
		rec.FullName,
		rec.CourseCode,
		rec.CourseName,
		rec.Attempts,
		string(rec.Outcome),
		rec.Message,
		rec.CreatedAt,
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert task record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, intent, email, full_name, course_code, course_name,
		        attempts, outcome, message, created_at, completed_at
		   FROM task_history ORDER BY completed_at DESC LIMIT $1`,
		limit,
	)
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

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
