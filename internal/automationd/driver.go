// Package automationd is the executor-side service: it receives action
// requests from the relay and drives the admin console through a Driver.
// One driver session is shared across requests and torn down after idling.
package automationd

import (
	"context"
	"fmt"
	"time"
)

// Driver runs admin-console operations inside one signed-in session. Each
// call returns the console's own outcome message; hard failures (crashed
// session, unreachable console) surface as errors.
type Driver interface {
	GiveAccess(ctx context.Context, email, courseName string) (string, error)
	EnrollUser(ctx context.Context, email, fullName, courseName string) (string, error)
	SuspendUser(ctx context.Context, identifier string) (string, error)
	DeleteUser(ctx context.Context, identifier string) (string, error)
	// CheckSession reports whether the session is still signed in and
	// usable. The holder reopens the driver when it fails.
	CheckSession(ctx context.Context) error
	Close() error
}

// OpenFunc signs in to the console and returns a ready driver.
type OpenFunc func(ctx context.Context, username, password string) (Driver, error)

// MockDriver simulates the console with the canonical success strings and
// a configurable per-action latency. It backs local development and tests.
type MockDriver struct {
	delay time.Duration
}

func NewMockDriver(delay time.Duration) *MockDriver {
	return &MockDriver{delay: delay}
}

// OpenMock is the OpenFunc for the mock driver; credentials are accepted
// unchecked.
func OpenMock(delay time.Duration) OpenFunc {
	return func(context.Context, string, string) (Driver, error) {
		return NewMockDriver(delay), nil
	}
}

func (d *MockDriver) GiveAccess(ctx context.Context, email, courseName string) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully gave access to %s for user %s", courseName, email), nil
}

func (d *MockDriver) EnrollUser(ctx context.Context, email, fullName, courseName string) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully enrolled %s (%s) to %s", fullName, email, courseName), nil
}

func (d *MockDriver) SuspendUser(ctx context.Context, identifier string) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully suspended user account for %s", identifier), nil
}

func (d *MockDriver) DeleteUser(ctx context.Context, identifier string) (string, error) {
	if err := d.wait(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully deleted user account for %s", identifier), nil
}

func (d *MockDriver) CheckSession(context.Context) error { return nil }

func (d *MockDriver) Close() error { return nil }

func (d *MockDriver) wait(ctx context.Context) error {
	if d.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
