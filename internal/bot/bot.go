// Package bot supervises the relay's moving parts: the Telegram update
// poller and the task queue worker. Start validates the token, spawns
// both loops, and Stop tears them down with a bounded join.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/techpathai/learnyst-relay/internal/automation"
	"github.com/techpathai/learnyst-relay/internal/catalog"
	"github.com/techpathai/learnyst-relay/internal/command"
	"github.com/techpathai/learnyst-relay/internal/observability"
	"github.com/techpathai/learnyst-relay/internal/queue"
	"github.com/techpathai/learnyst-relay/internal/store"
	"github.com/techpathai/learnyst-relay/internal/telegram"
)

// State is the lifecycle phase the dashboard shows.
type State string

const (
	StateInactive State = "Inactive"
	StateStarting State = "Starting"
	StateActive   State = "Active"
	StateStopping State = "Stopping"
	StateError    State = "Error"
)

var (
	ErrAlreadyRunning = errors.New("bot is already running")
	ErrNotRunning     = errors.New("bot is not running")
)

const stopJoinTimeout = 5 * time.Second

// Options wires the bot to its collaborators.
type Options struct {
	Client  *telegram.Client
	Parser  *command.Parser
	Catalog *catalog.Catalog

	TaskDelay      time.Duration
	MaxAttempts    int
	AttemptTimeout time.Duration
	Executor       automation.Executor
	History        store.Store

	PollIdleSleep  time.Duration
	PollErrorSleep time.Duration

	Metrics  *observability.Metrics
	Recorder *observability.Recorder
}

// Bot owns the poller and queue worker goroutines plus the state the
// status surface reads.
type Bot struct {
	mu        sync.Mutex
	state     State
	lastError string
	username  string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	client   *telegram.Client
	parser   *command.Parser
	catalog  *catalog.Catalog
	queue    *queue.Queue
	metrics  *observability.Metrics
	recorder *observability.Recorder

	idleSleep  time.Duration
	errorSleep time.Duration

	// offset is the getUpdates cursor. Only the single poll goroutine
	// touches it after Start; it survives Stop/Start cycles so updates
	// are not replayed.
	offset int64
}

// Status is the bot half of the status surface.
type Status struct {
	State     State      `json:"state"`
	Username  string     `json:"username,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

func New(opts Options) *Bot {
	if opts.PollIdleSleep <= 0 {
		opts.PollIdleSleep = time.Second
	}
	if opts.PollErrorSleep <= 0 {
		opts.PollErrorSleep = 5 * time.Second
	}
	b := &Bot{
		state:      StateInactive,
		client:     opts.Client,
		parser:     opts.Parser,
		catalog:    opts.Catalog,
		metrics:    opts.Metrics,
		recorder:   opts.Recorder,
		idleSleep:  opts.PollIdleSleep,
		errorSleep: opts.PollErrorSleep,
	}
	b.queue = queue.New(queue.Options{
		MinDelay:       opts.TaskDelay,
		MaxAttempts:    opts.MaxAttempts,
		AttemptTimeout: opts.AttemptTimeout,
		Executor:       opts.Executor,
		Notifier:       b,
		History:        opts.History,
		Metrics:        opts.Metrics,
		Recorder:       opts.Recorder,
	})
	return b
}

// Start validates the token against getMe and spawns the poll loop and the
// queue worker. It fails fast on a bad token so a misconfigured deploy
// never sits half-alive.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state == StateActive || b.state == StateStarting {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.state = StateStarting
	b.lastError = ""
	b.mu.Unlock()

	checkCtx, cancelCheck := context.WithTimeout(ctx, 10*time.Second)
	me, err := b.client.GetMe(checkCtx)
	cancelCheck()
	if err != nil {
		wrapped := fmt.Errorf("validate bot token: %w", err)
		b.mu.Lock()
		b.state = StateError
		b.lastError = wrapped.Error()
		b.mu.Unlock()
		b.recorder.Printf("bot start failed: %v", wrapped)
		return wrapped
	}

	runCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.queue.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		b.poll(runCtx)
	}()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	b.mu.Lock()
	b.state = StateActive
	b.username = me.Username
	b.startedAt = time.Now().UTC()
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	b.recorder.Printf("bot @%s online, listening for %s", me.Username, b.parser.Mention())
	return nil
}

// Stop cancels both loops and waits a bounded time for them to exit.
func (b *Bot) Stop() error {
	b.mu.Lock()
	if b.state != StateActive {
		b.mu.Unlock()
		return ErrNotRunning
	}
	b.state = StateStopping
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		b.recorder.Printf("bot loops still draining after %s, detaching", stopJoinTimeout)
	}

	b.mu.Lock()
	b.state = StateInactive
	b.cancel = nil
	b.done = nil
	b.mu.Unlock()

	b.recorder.Printf("bot stopped")
	return nil
}

// State returns the current lifecycle phase.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status returns the bot half of the status surface.
func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{
		State:     b.state,
		Username:  b.username,
		LastError: b.lastError,
	}
	if !b.startedAt.IsZero() {
		started := b.startedAt
		st.StartedAt = &started
	}
	return st
}

// QueueSnapshot exposes the queue state the status surface renders.
func (b *Bot) QueueSnapshot() queue.Snapshot {
	return b.queue.Snapshot()
}

// Notify implements queue.Notifier. Delivery failures are counted and
// logged, never propagated; a lost chat message must not fail a task.
func (b *Bot) Notify(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.metrics.SendErrors.Inc()
		b.recorder.Printf("send to chat %d failed: %v", chatID, err)
	}
}
