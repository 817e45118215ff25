// Package automation is the boundary between the relay and whatever drives
// the admin console. The queue worker only sees the Executor contract; the
// concrete shape behind it is a remote HTTP service or a local simulation.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Wire action names shared by every executor shape and the automation
// service.
const (
	ActionGiveAccess  = "give_access"
	ActionEnrollUser  = "enroll_user"
	ActionSuspendUser = "suspend_user"
	ActionDeleteUser  = "delete_user"
)

// Request is one admin-console action to run.
type Request struct {
	Action     string
	Email      string
	FullName   string
	CourseName string
}

// Result is the structured outcome of one attempt.
type Result struct {
	Message string
	Success bool
}

// Executor runs one admin-console action to completion, returning within a
// bounded time. An error return and a Success=false result both count as a
// failed attempt.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// Credentials is the pool of admin logins the executor signs in with. One
// email is picked at random per attempt to spread activity across accounts.
type Credentials struct {
	Emails   []string
	Password string
}

// Pick selects one admin email at random.
func (c Credentials) Pick() (string, error) {
	if len(c.Emails) == 0 {
		return "", errors.New("no admin emails configured")
	}
	return c.Emails[rand.Intn(len(c.Emails))], nil
}

// Config controls executor construction.
type Config struct {
	Mode        string
	ServiceURL  string
	APIKey      string
	Credentials Credentials
	MockDelay   time.Duration
}

// NewExecutor builds the executor for the configured mode. Mode auto picks
// the remote service when an API key is present and the simulation
// otherwise.
func NewExecutor(cfg Config) (Executor, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" && strings.TrimSpace(cfg.ServiceURL) != "" {
			return NewServiceExecutor(cfg.ServiceURL, cfg.APIKey, cfg.Credentials), nil
		}
		return NewMockExecutor(cfg.MockDelay), nil
	case "service":
		if strings.TrimSpace(cfg.ServiceURL) == "" {
			return nil, errors.New("automation service url is required for service mode")
		}
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("automation api key is required for service mode")
		}
		return NewServiceExecutor(cfg.ServiceURL, cfg.APIKey, cfg.Credentials), nil
	case "mock":
		return NewMockExecutor(cfg.MockDelay), nil
	default:
		return nil, fmt.Errorf("unsupported executor mode %q", cfg.Mode)
	}
}

// TextResult applies the legacy text contract: executors that only return
// prose signal success by using the word "successfully" somewhere in it.
// Structured replies are authoritative where available.
func TextResult(message string) Result {
	return Result{
		Message: message,
		Success: strings.Contains(strings.ToLower(message), "successfully"),
	}
}
