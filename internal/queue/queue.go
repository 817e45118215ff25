// Package queue serializes accepted commands into a single paced worker.
// At most one task executes at a time and at least MinDelay passes between
// one task finishing and the next starting, so the admin console never sees
// overlapping or rapid-fire sessions.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techpathai/learnyst-relay/internal/automation"
	"github.com/techpathai/learnyst-relay/internal/observability"
	"github.com/techpathai/learnyst-relay/internal/report"
	"github.com/techpathai/learnyst-relay/internal/store"
)

// Options wires the queue to its collaborators.
type Options struct {
	MinDelay       time.Duration // completion of one task to start of the next
	MaxAttempts    int
	AttemptTimeout time.Duration

	Executor automation.Executor
	Notifier Notifier
	History  store.Store // optional, nil disables persistence
	Metrics  *observability.Metrics
	Recorder *observability.Recorder
}

// Queue is the FIFO of pending tasks plus the single worker that drains it.
type Queue struct {
	mu sync.Mutex

	minDelay       time.Duration
	maxAttempts    int
	attemptTimeout time.Duration

	executor automation.Executor
	notifier Notifier
	history  store.Store
	metrics  *observability.Metrics
	recorder *observability.Recorder

	pending       []*Task
	inFlight      *Task
	lastCompleted time.Time

	wake chan struct{}
}

func New(opts Options) *Queue {
	if opts.MinDelay <= 0 {
		opts.MinDelay = 3 * time.Minute
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 2 * time.Minute
	}
	return &Queue{
		minDelay:       opts.MinDelay,
		maxAttempts:    opts.MaxAttempts,
		attemptTimeout: opts.AttemptTimeout,
		executor:       opts.Executor,
		notifier:       opts.Notifier,
		history:        opts.History,
		metrics:        opts.Metrics,
		recorder:       opts.Recorder,
		wake:           make(chan struct{}, 1),
	}
}

// Enqueue appends a task and returns its 1-based position among the pending
// tasks. Producers never block on execution.
func (q *Queue) Enqueue(task Task) int {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}

	q.mu.Lock()
	q.pending = append(q.pending, &task)
	position := len(q.pending)
	q.metrics.QueueDepth.Set(float64(position))
	q.mu.Unlock()

	q.recorder.Printf("task %s queued at position %d: %s %s", shortID(task.ID), position, task.Command.Intent, task.Command.Email)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return position
}

// Snapshot returns a copy of the queue state for the status surface.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := Snapshot{
		Pending:         len(q.pending),
		LastCompletedAt: q.lastCompleted,
	}
	if q.inFlight != nil {
		snap.InFlight = true
		snap.CurrentTaskID = q.inFlight.ID
		snap.CurrentIntent = string(q.inFlight.Command.Intent)
	}
	for _, t := range q.pending {
		snap.PendingTasks = append(snap.PendingTasks, Waiting{
			ID:         t.ID,
			Intent:     string(t.Command.Intent),
			Email:      t.Command.Email,
			EnqueuedAt: t.EnqueuedAt,
		})
	}
	return snap
}

// Run drains the queue until ctx is done. Callers run exactly one Run per
// queue; the single consumer is what enforces one task in flight.
func (q *Queue) Run(ctx context.Context) {
	q.recorder.Printf("queue worker started (pacing %s, max %d attempts)", q.minDelay, q.maxAttempts)
	defer q.recorder.Printf("queue worker stopped")

	for {
		if !q.awaitPending(ctx) {
			return
		}
		if !q.awaitTurn(ctx) {
			return
		}
		task, ok := q.begin()
		if !ok {
			continue
		}
		q.process(ctx, task)
		if ctx.Err() != nil {
			return
		}
	}
}

// awaitPending blocks until at least one task is queued, reporting false
// when ctx ends first.
func (q *Queue) awaitPending(ctx context.Context) bool {
	for {
		q.mu.Lock()
		ready := len(q.pending) > 0
		q.mu.Unlock()
		if ready {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-q.wake:
		}
	}
}

// awaitTurn holds until the pacing window since the last completion has
// passed, reporting false when ctx ends first.
func (q *Queue) awaitTurn(ctx context.Context) bool {
	for {
		q.mu.Lock()
		wait := NextStartDelay(q.lastCompleted, q.minDelay, time.Now().UTC())
		q.mu.Unlock()
		if wait <= 0 {
			return true
		}
		q.recorder.Printf("pacing: next task starts in %s", wait.Round(time.Second))
		if !sleepCtx(ctx, wait) {
			return false
		}
	}
}

func (q *Queue) begin() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	task := q.pending[0]
	q.pending = append([]*Task(nil), q.pending[1:]...)
	q.inFlight = task
	q.metrics.QueueDepth.Set(float64(len(q.pending)))
	return task, true
}

// process runs one task to a terminal outcome: success, exhaustion, or
// worker shutdown.
func (q *Queue) process(ctx context.Context, task *Task) {
	started := time.Now()
	q.metrics.TasksInFlight.Set(1)
	defer q.metrics.TasksInFlight.Set(0)

	q.recorder.Printf("task %s started: %s %s", shortID(task.ID), task.Command.Intent, task.Command.Email)

	var (
		attempts    int
		outcome     = store.OutcomeFailed
		lastMessage string
	)
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		attempts = attempt
		if attempt == 1 {
			q.notifier.Notify(ctx, task.ChatID, report.Processing(task.Command))
		}
		res, err := q.attempt(ctx, task)
		if err == nil && res.Success {
			outcome = store.OutcomeCompleted
			lastMessage = res.Message
			break
		}
		lastMessage = failureText(res, err)
		q.recorder.Printf("task %s attempt %d/%d failed: %s", shortID(task.ID), attempt, q.maxAttempts, lastMessage)
		if ctx.Err() != nil {
			q.abandon(task)
			return
		}
		if attempt == q.maxAttempts {
			break
		}
		q.metrics.TaskRetries.Inc()
		q.notifier.Notify(ctx, task.ChatID, report.Retry(q.minDelay, attempt+1, q.maxAttempts))
		if !sleepCtx(ctx, q.minDelay) {
			q.abandon(task)
			return
		}
	}

	if outcome == store.OutcomeCompleted {
		q.notifier.Notify(ctx, task.ChatID, report.Success(task.Command))
		q.recorder.Printf("task %s completed after %d attempt(s)", shortID(task.ID), attempts)
	} else {
		q.notifier.Notify(ctx, task.ChatID, report.Failed(attempts, lastMessage))
		q.recorder.Printf("task %s failed after %d attempt(s): %s", shortID(task.ID), attempts, lastMessage)
	}

	q.metrics.TasksTotal.WithLabelValues(string(task.Command.Intent), string(outcome)).Inc()
	q.metrics.ObserveTaskDuration(time.Since(started))
	q.persist(task, attempts, outcome, lastMessage)
	q.finish()
}

func (q *Queue) attempt(ctx context.Context, task *Task) (automation.Result, error) {
	actx, cancel := context.WithTimeout(ctx, q.attemptTimeout)
	defer cancel()
	return q.executor.Execute(actx, automation.Request{
		Action:     string(task.Command.Intent),
		Email:      task.Command.Email,
		FullName:   task.Command.FullName,
		CourseName: task.Command.CourseName,
	})
}

// finish stamps the completion time that the pacer measures from.
func (q *Queue) finish() {
	q.mu.Lock()
	q.inFlight = nil
	q.lastCompleted = time.Now().UTC()
	q.mu.Unlock()
}

// abandon clears the in-flight task without stamping a completion; the
// worker is shutting down mid-run.
func (q *Queue) abandon(task *Task) {
	q.mu.Lock()
	q.inFlight = nil
	q.mu.Unlock()
	q.recorder.Printf("worker stopping, task %s abandoned mid-run", shortID(task.ID))
}

func (q *Queue) persist(task *Task, attempts int, outcome store.Outcome, message string) {
	if q.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := q.history.SaveTask(ctx, store.TaskRecord{
		ID:          task.ID,
		ChatID:      task.ChatID,
		Intent:      string(task.Command.Intent),
		Email:       task.Command.Email,
		FullName:    task.Command.FullName,
		CourseCode:  task.Command.CourseCode,
		CourseName:  task.Command.CourseName,
		Attempts:    attempts,
		Outcome:     outcome,
		Message:     message,
		CreatedAt:   task.EnqueuedAt,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		q.recorder.Printf("history save for task %s failed: %v", shortID(task.ID), err)
	}
}

func failureText(res automation.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if res.Message != "" {
		return res.Message
	}
	return "automation reported failure"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
