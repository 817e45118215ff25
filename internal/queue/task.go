package queue

import (
	"context"
	"time"

	"github.com/techpathai/learnyst-relay/internal/command"
)

// Task is one accepted command waiting for its turn. Immutable once
// enqueued; attempt bookkeeping lives in the worker loop.
type Task struct {
	ID         string
	ChatID     int64
	Command    command.Command
	RawText    string
	EnqueuedAt time.Time
}

// Notifier delivers progress messages back to the chat a task came from.
// Delivery is fire-and-forget; a lost notice never fails the task.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string)
}

// Snapshot is a point-in-time copy of the queue state for the status
// surface. PendingTasks is ordered oldest first.
type Snapshot struct {
	Pending         int       `json:"pending"`
	InFlight        bool      `json:"in_flight"`
	CurrentTaskID   string    `json:"current_task_id,omitempty"`
	CurrentIntent   string    `json:"current_intent,omitempty"`
	LastCompletedAt time.Time `json:"last_completed_at"`
	PendingTasks    []Waiting `json:"pending_tasks,omitempty"`
}

// Waiting is one queued-but-not-started task as the status API shows it.
type Waiting struct {
	ID         string    `json:"id"`
	Intent     string    `json:"intent"`
	Email      string    `json:"email"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
