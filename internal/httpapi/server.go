// Package httpapi is the relay's operational surface: bot status and
// queue snapshot, lifecycle control, task history, and a live log tail.
// The HTML dashboard that used to sit on top of these endpoints is gone;
// the JSON contract is what remains.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/techpathai/learnyst-relay/internal/bot"
	"github.com/techpathai/learnyst-relay/internal/config"
	"github.com/techpathai/learnyst-relay/internal/observability"
	"github.com/techpathai/learnyst-relay/internal/store"
)

type Server struct {
	cfg         config.Config
	bot         *bot.Bot
	history     store.Store
	historyMode string
	recorder    *observability.Recorder
	upgrader    websocket.Upgrader
}

func New(cfg config.Config, b *bot.Bot, history store.Store, historyMode string, recorder *observability.Recorder) *Server {
	return &Server{
		cfg:         cfg,
		bot:         b,
		history:     history,
		historyMode: historyMode,
		recorder:    recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Foreign origins cannot attach to the log stream unless
				// the deploy opts in; non-browser clients omit Origin and
				// pass.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/bot/start", s.handleStartBot)
	r.Post("/api/bot/stop", s.handleStopBot)
	r.Get("/api/tasks", s.handleListTasks)
	r.Get("/api/logs/stream", s.handleLogStream)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"bot_status":    s.bot.State(),
		"history_store": s.historyMode,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": s.bot.State(),
		"bot":    s.bot.Status(),
		"queue":  s.bot.QueueSnapshot(),
		"logs":   s.recorder.Lines(),
	})
}

// handleStartBot runs the start synchronously so a bad token surfaces
// here instead of dying quietly in a goroutine. The start outlives the
// request once the loops are up.
func (s *Server) handleStartBot(w http.ResponseWriter, _ *http.Request) {
	err := s.bot.Start(context.Background())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"status": "Bot started"})
	case errors.Is(err, bot.ErrAlreadyRunning):
		respondJSON(w, http.StatusOK, map[string]string{"status": "Bot is already running"})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"status": "Failed to start the bot, check logs for details"})
	}
}

func (s *Server) handleStopBot(w http.ResponseWriter, _ *http.Request) {
	err := s.bot.Stop()
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"status": "Bot has been stopped"})
	case errors.Is(err, bot.ErrNotRunning):
		respondJSON(w, http.StatusOK, map[string]string{"status": "Bot is not running"})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]string{"status": "Failed to stop the bot, check logs for details"})
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}

	recs, err := s.history.ListRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	if recs == nil {
		recs = []store.TaskRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": recs})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
