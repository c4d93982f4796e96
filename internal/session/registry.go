// Package session holds the in-memory registry of live conversation
// sessions. Sessions do not survive a restart; the registry is the
// only place that maps session ids to their state.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tpatole/rag-helper-bot/internal/chat"
)

// ErrNotFound is returned when a session id has no live session.
var ErrNotFound = errors.New("session not found")

// Record pairs a session with its registry metadata.
type Record struct {
	ID        string
	CreatedAt time.Time
	Session   *chat.Session
}

// Registry is a concurrency-safe map of session id to session. Every
// session gets its own unshared logs; the registry itself never
// touches conversation state.
type Registry struct {
	answerer chat.Answerer
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Record
}

// New creates an empty registry whose sessions talk to the given
// backend.
func New(answerer chat.Answerer, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		answerer: answerer,
		logger:   logger,
		sessions: make(map[string]*Record),
	}
}

// Create registers a fresh session and returns its record.
func (r *Registry) Create() *Record {
	rec := &Record{
		ID:        "sess_" + uuid.New().String(),
		CreatedAt: time.Now(),
		Session:   chat.NewSession(r.answerer, r.logger),
	}

	r.mu.Lock()
	r.sessions[rec.ID] = rec
	r.mu.Unlock()

	r.logger.Info("session created", slog.String("session_id", rec.ID))
	return rec
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Delete drops a session from the registry.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
