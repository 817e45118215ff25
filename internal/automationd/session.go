package automationd

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Holder owns at most one live driver and serializes every use of it. The
// console cannot cope with concurrent sessions, so all requests funnel
// through the holder's lock.
type Holder struct {
	mu       sync.Mutex
	open     OpenFunc
	driver   Driver
	username string
	lastUsed time.Time
	maxIdle  time.Duration
}

func NewHolder(open OpenFunc, maxIdle time.Duration) *Holder {
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}
	return &Holder{open: open, maxIdle: maxIdle}
}

// Do runs fn against the live driver, opening or reopening a session on
// demand. A stale session (CheckSession failure) is closed and replaced
// before fn runs.
func (h *Holder) Do(ctx context.Context, username, password string, fn func(Driver) (string, error)) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.driver != nil {
		if err := h.driver.CheckSession(ctx); err != nil {
			log.Printf("console session stale, reopening: %v", err)
			if cerr := h.driver.Close(); cerr != nil {
				log.Printf("close stale console session: %v", cerr)
			}
			h.driver = nil
		}
	}
	if h.driver == nil {
		d, err := h.open(ctx, username, password)
		if err != nil {
			return "", fmt.Errorf("open console session: %w", err)
		}
		h.driver = d
		h.username = username
		log.Printf("opened console session for %s", username)
	}

	h.lastUsed = time.Now().UTC()
	msg, err := fn(h.driver)
	h.lastUsed = time.Now().UTC()
	return msg, err
}

// Active reports whether a driver session is currently open.
func (h *Holder) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver != nil
}

// StartJanitor closes the session after maxIdle of inactivity. It stops,
// closing any open session, when ctx ends.
func (h *Holder) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.Close()
				return
			case <-ticker.C:
				h.closeIfIdle()
			}
		}
	}()
}

// Close tears down the session unconditionally.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked("shutdown")
}

func (h *Holder) closeIfIdle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.driver == nil {
		return
	}
	idle := time.Since(h.lastUsed)
	if idle < h.maxIdle {
		return
	}
	h.closeLocked(fmt.Sprintf("%s idle", idle.Round(time.Second)))
}

func (h *Holder) closeLocked(reason string) {
	if h.driver == nil {
		return
	}
	log.Printf("closing console session for %s (%s)", h.username, reason)
	if err := h.driver.Close(); err != nil {
		log.Printf("close console session: %v", err)
	}
	h.driver = nil
	h.username = ""
}
