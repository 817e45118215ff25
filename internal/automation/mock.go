package automation

import (
	"context"
	"fmt"
	"time"
)

// MockExecutor simulates the admin console for development and tests. Every
// known action succeeds after an artificial processing delay.
type MockExecutor struct {
	delay time.Duration
}

func NewMockExecutor(delay time.Duration) *MockExecutor {
	return &MockExecutor{delay: delay}
}

func (m *MockExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(m.delay):
		}
	} else {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
	}

	switch req.Action {
	case ActionGiveAccess:
		return Result{
			Message: fmt.Sprintf("[SIMULATION] Access granted to %s for course %s", req.Email, req.CourseName),
			Success: true,
		}, nil
	case ActionEnrollUser:
		return Result{
			Message: fmt.Sprintf("[SIMULATION] User %s (%s) enrolled in course %s", req.Email, req.FullName, req.CourseName),
			Success: true,
		}, nil
	case ActionSuspendUser:
		return Result{
			Message: fmt.Sprintf("[SIMULATION] User %s suspended", req.Email),
			Success: true,
		}, nil
	case ActionDeleteUser:
		return Result{
			Message: fmt.Sprintf("[SIMULATION] User %s deleted", req.Email),
			Success: true,
		}, nil
	default:
		return Result{Message: fmt.Sprintf("[SIMULATION] Unknown action: %s", req.Action)}, nil
	}
}
