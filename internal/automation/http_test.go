package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testCreds = Credentials{Emails: []string{"admin@corp.io"}, Password: "pw"}

func TestServiceExecutorSuccess(t *testing.T) {
	var got executePayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/learnyst/execute" {
			t.Errorf("path = %q, want /learnyst/execute", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "✅ Successfully gave access to Full Stack 1 for user jane@example.com"})
	}))
	defer ts.Close()

	exec := NewServiceExecutor(ts.URL, "secret", testCreds)
	res, err := exec.Execute(context.Background(), Request{
		Action:     ActionGiveAccess,
		Email:      "jane@example.com",
		CourseName: "Full Stack 1",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute().Success = false, want true")
	}
	if got.Action != ActionGiveAccess || got.Email != "jane@example.com" || got.CourseName != "Full Stack 1" {
		t.Fatalf("payload = %+v, want give_access fields", got)
	}
	if got.APIKey != "secret" {
		t.Fatalf("payload.APIKey = %q, want %q", got.APIKey, "secret")
	}
	if got.LearnystUsername != "admin@corp.io" || got.LearnystPassword != "pw" {
		t.Fatalf("payload credentials = %q/%q, want pool credentials", got.LearnystUsername, got.LearnystPassword)
	}
	if got.UserIdentifier != "" {
		t.Fatalf("payload.UserIdentifier = %q, want empty for give_access", got.UserIdentifier)
	}
}

func TestServiceExecutorMapsIdentifierActions(t *testing.T) {
	var got executePayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "✅ Successfully suspended user jane@example.com"})
	}))
	defer ts.Close()

	exec := NewServiceExecutor(ts.URL, "secret", testCreds)
	if _, err := exec.Execute(context.Background(), Request{Action: ActionSuspendUser, Email: "jane@example.com"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.UserIdentifier != "jane@example.com" {
		t.Fatalf("payload.UserIdentifier = %q, want email", got.UserIdentifier)
	}
	if got.Email != "" {
		t.Fatalf("payload.Email = %q, want empty for suspend_user", got.Email)
	}
}

func TestServiceExecutorKeepsFailureFlag(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Error: User with email x@y.z not found"})
	}))
	defer ts.Close()

	exec := NewServiceExecutor(ts.URL, "secret", testCreds)
	res, err := exec.Execute(context.Background(), Request{Action: ActionGiveAccess, Email: "x@y.z", CourseName: "Ownership"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Success {
		t.Fatalf("Execute().Success = true, want false")
	}
	if !strings.Contains(res.Message, "not found") {
		t.Fatalf("Execute().Message = %q, want service message", res.Message)
	}
}

func TestServiceExecutorNon2xxIsHardFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid API key"})
	}))
	defer ts.Close()

	exec := NewServiceExecutor(ts.URL, "wrong", testCreds)
	_, err := exec.Execute(context.Background(), Request{Action: ActionDeleteUser, Email: "x@y.z"})
	if err == nil {
		t.Fatalf("Execute() error = nil, want error for 403")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("Execute() error = %v, want status in message", err)
	}
}

func TestServiceExecutorTextBodyFallsBack(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("action completed successfully"))
	}))
	defer ts.Close()

	exec := NewServiceExecutor(ts.URL, "secret", testCreds)
	res, err := exec.Execute(context.Background(), Request{Action: ActionGiveAccess, Email: "a@b.co", CourseName: "Full Stack 2"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Execute().Success = false, want legacy marker to succeed")
	}
}

func TestServiceExecutorRequiresAdminPool(t *testing.T) {
	exec := NewServiceExecutor("http://localhost:5500", "secret", Credentials{})
	if _, err := exec.Execute(context.Background(), Request{Action: ActionGiveAccess}); err == nil {
		t.Fatalf("Execute() error = nil, want error for empty admin pool")
	}
}
