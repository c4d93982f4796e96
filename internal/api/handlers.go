// Package api exposes the conversation session operations as the JSON
// surface the rendering layer consumes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tpatole/rag-helper-bot/internal/config"
	"github.com/tpatole/rag-helper-bot/internal/server"
	"github.com/tpatole/rag-helper-bot/internal/session"
	"github.com/tpatole/rag-helper-bot/internal/tokens"
)

// AvatarFetcher is the best-effort profile-picture source.
type AvatarFetcher interface {
	Fetch(ctx context.Context, email string) []byte
}

// Handler routes session, profile, and avatar requests.
type Handler struct {
	registry *session.Registry
	avatars  AvatarFetcher
	counter  tokens.Counter
	profile  config.ProfileConfig
	logger   *slog.Logger
}

func NewHandler(registry *session.Registry, avatars AvatarFetcher, counter tokens.Counter, profile config.ProfileConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		avatars:  avatars,
		counter:  counter,
		profile:  profile,
		logger:   logger,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/ask", h.handleAsk)
			r.Get("/history", h.handleHistory)
			r.Post("/reset", h.handleReset)
			r.Delete("/", h.handleDelete)
		})
		r.Get("/profile", h.handleProfile)
		r.Get("/profile/avatar", h.handleAvatar)
	})
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	rec := h.registry.Create()
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: rec.ID,
		CreatedAt: rec.CreatedAt,
	})
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

type askResponse struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt must not be blank", http.StatusBadRequest)
		return
	}

	if h.counter != nil {
		estimate := h.counter.Count(req.Prompt, rec.Session.History())
		server.AddLogField(r.Context(), "prompt_tokens", strconv.Itoa(estimate))
	}

	// Use the exchange Ask itself appended: re-reading the last log
	// entry here would race with a concurrent reset or ask on the same
	// session.
	ex := rec.Session.Ask(r.Context(), req.Prompt)
	writeJSON(w, http.StatusOK, askResponse{Prompt: ex.Query, Answer: ex.Answer})
}

type historyEntry struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
	Status string `json:"status"`
}

type historyResponse struct {
	Exchanges []historyEntry `json:"exchanges"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}

	exchanges := rec.Session.Render()
	out := historyResponse{Exchanges: make([]historyEntry, 0, len(exchanges))}
	for _, ex := range exchanges {
		status := "valid"
		if ex.Corrupted {
			status = "corrupted"
		}
		out.Exchanges = append(out.Exchanges, historyEntry{
			Prompt: ex.Query,
			Answer: ex.Answer,
			Status: status,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	rec.Session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	server.AddLogField(r.Context(), "session_id", id)
	if err := h.registry.Delete(id); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileResponse{
		Name:  h.profile.Name,
		Email: h.profile.Email,
	})
}

func (h *Handler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	img := h.avatars.Fetch(r.Context(), h.profile.Email)
	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lookup resolves the session id in the URL, writing a 404 when it is
// unknown.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Record, bool) {
	id := chi.URLParam(r, "sessionID")
	server.AddLogField(r.Context(), "session_id", id)

	rec, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
