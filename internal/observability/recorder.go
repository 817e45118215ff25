package observability

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Recorder mirrors log lines into a bounded ring for the status surface
// and fans live lines out to stream subscribers. Every component logs
// through it so the dashboard sees what the process log sees.
type Recorder struct {
	mu          sync.Mutex
	lines       []string
	limit       int
	subscribers map[int]chan string
	nextSubID   int
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{
		limit:       limit,
		subscribers: make(map[int]chan string),
	}
}

// Printf logs through the standard logger and appends the line to the ring.
func (r *Recorder) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	if len(r.lines) > r.limit {
		r.lines = append([]string(nil), r.lines[len(r.lines)-r.limit:]...)
	}
	for _, ch := range r.subscribers {
		select {
		case ch <- line:
		default:
			// Slow stream consumers drop lines rather than block logging.
		}
	}
}

// Lines returns a copy of the retained log lines, oldest first.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Subscribe registers a live tail. The cancel func must be called to
// release the channel.
func (r *Recorder) Subscribe() (<-chan string, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, cancel := r.subscribeLocked()
	return ch, cancel
}

// Tail returns the retained lines plus a subscription that picks up
// exactly where the backlog ends, with no gap or overlap between them.
func (r *Recorder) Tail() ([]string, <-chan string, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	backlog := make([]string, len(r.lines))
	copy(backlog, r.lines)
	ch, cancel := r.subscribeLocked()
	return backlog, ch, cancel
}

func (r *Recorder) subscribeLocked() (<-chan string, func()) {
	ch := make(chan string, 64)
	r.nextSubID++
	id := r.nextSubID
	r.subscribers[id] = ch

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(c)
		}
	}
}
