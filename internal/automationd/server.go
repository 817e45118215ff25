package automationd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/techpathai/learnyst-relay/internal/automation"
)

// Server is the HTTP face of the automation service.
type Server struct {
	apiKey string
	holder *Holder
}

func NewServer(apiKey string, holder *Holder) *Server {
	return &Server{apiKey: apiKey, holder: holder}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Post("/learnyst/execute", s.handleExecute)
	return r
}

type executeRequest struct {
	APIKey           string `json:"api_key"`
	Action           string `json:"action"`
	LearnystUsername string `json:"learnyst_username"`
	LearnystPassword string `json:"learnyst_password"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	CourseName       string `json:"course_name"`
	UserIdentifier   string `json:"user_identifier"`
}

type executeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Learnyst automation service is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondOutcome(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.APIKey != s.apiKey {
		log.Printf("execute rejected: invalid API key")
		respondOutcome(w, http.StatusForbidden, "Invalid API key")
		return
	}
	if req.Action == "" {
		respondOutcome(w, http.StatusBadRequest, "Missing action parameter")
		return
	}
	if req.LearnystUsername == "" || req.LearnystPassword == "" {
		respondOutcome(w, http.StatusBadRequest, "Missing Learnyst credentials")
		return
	}

	var run func(Driver) (string, error)
	switch req.Action {
	case automation.ActionGiveAccess:
		if req.Email == "" || req.CourseName == "" {
			respondOutcome(w, http.StatusBadRequest, "Missing required parameters: email and course_name")
			return
		}
		log.Printf("executing give_access for %s to %s", req.Email, req.CourseName)
		run = func(d Driver) (string, error) {
			return d.GiveAccess(r.Context(), req.Email, req.CourseName)
		}
	case automation.ActionEnrollUser:
		if req.Email == "" || req.FullName == "" || req.CourseName == "" {
			respondOutcome(w, http.StatusBadRequest, "Missing required parameters: email, full_name, and course_name")
			return
		}
		log.Printf("executing enroll_user for %s (%s) to %s", req.FullName, req.Email, req.CourseName)
		run = func(d Driver) (string, error) {
			return d.EnrollUser(r.Context(), req.Email, req.FullName, req.CourseName)
		}
	case automation.ActionSuspendUser:
		if req.UserIdentifier == "" {
			respondOutcome(w, http.StatusBadRequest, "Missing required parameter: user_identifier")
			return
		}
		log.Printf("executing suspend_user for %s", req.UserIdentifier)
		run = func(d Driver) (string, error) {
			return d.SuspendUser(r.Context(), req.UserIdentifier)
		}
	case automation.ActionDeleteUser:
		if req.UserIdentifier == "" {
			respondOutcome(w, http.StatusBadRequest, "Missing required parameter: user_identifier")
			return
		}
		log.Printf("executing delete_user for %s", req.UserIdentifier)
		run = func(d Driver) (string, error) {
			return d.DeleteUser(r.Context(), req.UserIdentifier)
		}
	default:
		respondOutcome(w, http.StatusBadRequest, fmt.Sprintf("Unknown action: %s", req.Action))
		return
	}

	message, err := s.holder.Do(r.Context(), req.LearnystUsername, req.LearnystPassword, run)
	if err != nil {
		log.Printf("action %s failed: %v", req.Action, err)
		respondOutcome(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	// The console reports soft failures as plain text, not errors; the
	// success flag comes from the message itself.
	res := automation.TextResult(message)
	respondJSON(w, http.StatusOK, executeResponse{Success: res.Success, Message: res.Message})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondOutcome(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, executeResponse{Success: false, Message: message})
}
