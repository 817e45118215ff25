package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServiceExecutor forwards actions to the remote automation service over
// its /learnyst/execute contract.
type ServiceExecutor struct {
	url    string
	apiKey string
	creds  Credentials
	client *http.Client
}

func NewServiceExecutor(url, apiKey string, creds Credentials) *ServiceExecutor {
	return &ServiceExecutor{
		url:    strings.TrimRight(strings.TrimSpace(url), "/"),
		apiKey: apiKey,
		creds:  creds,
		client: &http.Client{
			// Browser-driven actions are slow; give the service a full minute.
			Timeout: 60 * time.Second,
		},
	}
}

type executePayload struct {
	Action           string `json:"action"`
	Email            string `json:"email,omitempty"`
	FullName         string `json:"full_name,omitempty"`
	CourseName       string `json:"course_name,omitempty"`
	UserIdentifier   string `json:"user_identifier,omitempty"`
	LearnystUsername string `json:"learnyst_username"`
	LearnystPassword string `json:"learnyst_password"`
	APIKey           string `json:"api_key"`
}

type executeReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e *ServiceExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	admin, err := e.creds.Pick()
	if err != nil {
		return Result{}, err
	}

	payload := executePayload{
		Action:           req.Action,
		LearnystUsername: admin,
		LearnystPassword: e.creds.Password,
		APIKey:           e.apiKey,
	}
	switch req.Action {
	case ActionSuspendUser, ActionDeleteUser:
		payload.UserIdentifier = req.Email
	default:
		payload.Email = req.Email
		payload.FullName = req.FullName
		payload.CourseName = req.CourseName
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url+"/learnyst/execute", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := e.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Result{}, fmt.Errorf("automation service status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var reply executeReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		// Text-only executors fall back to the legacy success marker.
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return Result{}, fmt.Errorf("decode response: %w", err)
		}
		return TextResult(text), nil
	}
	return Result{Message: reply.Message, Success: reply.Success}, nil
}
