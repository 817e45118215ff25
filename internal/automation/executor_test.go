package automation

import (
	"context"
	"testing"
	"time"
)

func TestTextResult(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"✅ Successfully gave access to Full Stack 1 for user a@b.co", true},
		{"user SUCCESSFULLY suspended", true},
		{"Error: User with email a@b.co not found", false},
		{"❌ Error giving access: timeout", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := TextResult(tc.message); got.Success != tc.want {
			t.Fatalf("TextResult(%q).Success = %v, want %v", tc.message, got.Success, tc.want)
		} else if got.Message != tc.message {
			t.Fatalf("TextResult(%q).Message = %q, want original text", tc.message, got.Message)
		}
	}
}

func TestNewExecutorAutoPrefersServiceWhenKeyed(t *testing.T) {
	exec, err := NewExecutor(Config{
		Mode:       "auto",
		ServiceURL: "http://localhost:5500",
		APIKey:     "secret",
	})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	if _, ok := exec.(*ServiceExecutor); !ok {
		t.Fatalf("NewExecutor(auto with key) = %T, want *ServiceExecutor", exec)
	}
}

func TestNewExecutorAutoFallsBackToMock(t *testing.T) {
	exec, err := NewExecutor(Config{Mode: "auto", ServiceURL: "http://localhost:5500"})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	if _, ok := exec.(*MockExecutor); !ok {
		t.Fatalf("NewExecutor(auto without key) = %T, want *MockExecutor", exec)
	}
}

func TestNewExecutorServiceModeRequiresURLAndKey(t *testing.T) {
	if _, err := NewExecutor(Config{Mode: "service", APIKey: "secret"}); err == nil {
		t.Fatalf("NewExecutor(service without url) error = nil, want error")
	}
	if _, err := NewExecutor(Config{Mode: "service", ServiceURL: "http://x"}); err == nil {
		t.Fatalf("NewExecutor(service without key) error = nil, want error")
	}
}

func TestNewExecutorRejectsUnknownMode(t *testing.T) {
	if _, err := NewExecutor(Config{Mode: "browser"}); err == nil {
		t.Fatalf("NewExecutor(browser) error = nil, want error")
	}
}

func TestCredentialsPick(t *testing.T) {
	if _, err := (Credentials{}).Pick(); err == nil {
		t.Fatalf("Pick() on empty pool error = nil, want error")
	}

	pool := Credentials{Emails: []string{"a@corp.io", "b@corp.io"}, Password: "pw"}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		email, err := pool.Pick()
		if err != nil {
			t.Fatalf("Pick() error = %v", err)
		}
		if email != "a@corp.io" && email != "b@corp.io" {
			t.Fatalf("Pick() = %q, want a member of the pool", email)
		}
		seen[email] = true
	}
	if len(seen) != 2 {
		t.Fatalf("Pick() over 50 draws hit %d distinct emails, want 2", len(seen))
	}
}

func TestMockExecutorDelayZeroReturnsImmediately(t *testing.T) {
	exec := NewMockExecutor(0)
	start := time.Now()
	res, err := exec.Execute(context.Background(), Request{Action: ActionGiveAccess, Email: "a@b.co", CourseName: "Full Stack 1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("Execute() with zero delay took %v", time.Since(start))
	}
	if !res.Success {
		t.Fatalf("Execute().Success = false, want true")
	}
}
