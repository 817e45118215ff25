package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/techpathai/learnyst-relay/internal/automation"
	"github.com/techpathai/learnyst-relay/internal/bot"
	"github.com/techpathai/learnyst-relay/internal/catalog"
	"github.com/techpathai/learnyst-relay/internal/command"
	"github.com/techpathai/learnyst-relay/internal/config"
	"github.com/techpathai/learnyst-relay/internal/observability"
	"github.com/techpathai/learnyst-relay/internal/store"
	"github.com/techpathai/learnyst-relay/internal/telegram"
)

var testMetrics = observability.NewMetrics("httpapi_test")

// fakeBotAPI answers just enough Telegram calls for the lifecycle
// endpoints: a valid getMe, empty update batches, accepted sends.
func fakeBotAPI(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"username":"LearnystBot"}}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			fmt.Fprint(w, `{"ok":true,"result":{}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newTestServer(t *testing.T) (string, *bot.Bot, store.Store, *observability.Recorder) {
	t.Helper()

	client, err := telegram.NewClient(telegram.Config{
		Token:       "123:test-token",
		BaseURL:     fakeBotAPI(t),
		PollTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	cat := catalog.Default()
	recorder := observability.NewRecorder(20)
	history := store.NewMemoryStore(0)
	b := bot.New(bot.Options{
		Client:         client,
		Parser:         command.NewParser("@LearnystBot", cat),
		Catalog:        cat,
		TaskDelay:      10 * time.Millisecond,
		MaxAttempts:    2,
		AttemptTimeout: time.Second,
		Executor:       automation.NewMockExecutor(0),
		History:        history,
		PollIdleSleep:  10 * time.Millisecond,
		PollErrorSleep: 10 * time.Millisecond,
		Metrics:        testMetrics,
		Recorder:       recorder,
	})
	t.Cleanup(func() {
		if b.State() == bot.StateActive {
			_ = b.Stop()
		}
	})

	srv := New(config.Config{AllowAnyOrigin: true}, b, history, "memory", recorder)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts.URL, b, history, recorder
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode
}

func postJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode
}

func TestHealthz(t *testing.T) {
	url, _, _, _ := newTestServer(t)

	var payload map[string]any
	if status := getJSON(t, url+"/healthz", &payload); status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if payload["status"] != "ok" {
		t.Fatalf("status field = %v, want ok", payload["status"])
	}
	if payload["bot_status"] != "Inactive" {
		t.Fatalf("bot_status = %v, want Inactive", payload["bot_status"])
	}
	if payload["history_store"] != "memory" {
		t.Fatalf("history_store = %v, want memory", payload["history_store"])
	}
}

func TestStatusCarriesLogsAndQueue(t *testing.T) {
	url, _, _, recorder := newTestServer(t)
	recorder.Printf("relay booted")

	var payload struct {
		Status string   `json:"status"`
		Logs   []string `json:"logs"`
		Queue  struct {
			Pending  int  `json:"pending"`
			InFlight bool `json:"in_flight"`
		} `json:"queue"`
	}
	if status := getJSON(t, url+"/api/status", &payload); status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if payload.Status != "Inactive" {
		t.Fatalf("payload.Status = %q, want Inactive", payload.Status)
	}
	if len(payload.Logs) != 1 || !strings.HasSuffix(payload.Logs[0], "relay booted") {
		t.Fatalf("payload.Logs = %v", payload.Logs)
	}
	if payload.Queue.Pending != 0 || payload.Queue.InFlight {
		t.Fatalf("payload.Queue = %+v", payload.Queue)
	}
}

func TestBotLifecycleEndpoints(t *testing.T) {
	url, b, _, _ := newTestServer(t)

	var reply map[string]string
	if status := postJSON(t, url+"/api/bot/start", &reply); status != http.StatusOK {
		t.Fatalf("start status = %d, want %d", status, http.StatusOK)
	}
	if reply["status"] != "Bot started" {
		t.Fatalf("start reply = %v", reply)
	}
	if got := b.State(); got != bot.StateActive {
		t.Fatalf("bot state after start = %q, want %q", got, bot.StateActive)
	}

	if status := postJSON(t, url+"/api/bot/start", &reply); status != http.StatusOK {
		t.Fatalf("second start status = %d", status)
	}
	if reply["status"] != "Bot is already running" {
		t.Fatalf("second start reply = %v", reply)
	}

	if status := postJSON(t, url+"/api/bot/stop", &reply); status != http.StatusOK {
		t.Fatalf("stop status = %d", status)
	}
	if reply["status"] != "Bot has been stopped" {
		t.Fatalf("stop reply = %v", reply)
	}

	if status := postJSON(t, url+"/api/bot/stop", &reply); status != http.StatusOK {
		t.Fatalf("second stop status = %d", status)
	}
	if reply["status"] != "Bot is not running" {
		t.Fatalf("second stop reply = %v", reply)
	}
}

func TestListTasks(t *testing.T) {
	url, _, history, _ := newTestServer(t)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		err := history.SaveTask(context.Background(), store.TaskRecord{
			ID:          fmt.Sprintf("task-%d", i),
			ChatID:      1,
			Intent:      "give_access",
			Email:       "a@b.com",
			Attempts:    1,
			Outcome:     store.OutcomeCompleted,
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
			CompletedAt: now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("SaveTask() error = %v", err)
		}
	}

	var payload struct {
		Tasks []store.TaskRecord `json:"tasks"`
	}
	if status := getJSON(t, url+"/api/tasks?limit=2", &payload); status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if len(payload.Tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(payload.Tasks))
	}
	if payload.Tasks[0].ID != "task-2" {
		t.Fatalf("tasks[0].ID = %q, want newest first", payload.Tasks[0].ID)
	}

	res, err := http.Get(url + "/api/tasks?limit=nope")
	if err != nil {
		t.Fatalf("GET bad limit error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestLogStreamBacklogThenLive(t *testing.T) {
	url, _, _, recorder := newTestServer(t)
	recorder.Printf("first line")

	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/api/logs/stream"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if res != nil && res.Body != nil {
		res.Body.Close()
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read backlog: %v", err)
	}
	if !strings.HasSuffix(string(data), "first line") {
		t.Fatalf("backlog line = %q", data)
	}

	recorder.Printf("second line")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read live line: %v", err)
	}
	if !strings.HasSuffix(string(data), "second line") {
		t.Fatalf("live line = %q", data)
	}
}
