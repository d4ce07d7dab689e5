// Package sessions owns the in-memory session records and their retention.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/video-kiosk/backend/internal/models"
)

// ErrNotFound is returned when a session id is unknown (never created, or
// already reaped).
var ErrNotFound = errors.New("session not found")

// Store is the single source of truth for session records. Records are
// process-memory only; a restart clears them. All reads return snapshot
// copies so callers never hold a live pointer into the map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*models.Session)}
}

// Create inserts a new session in recording state and returns a snapshot.
func (s *Store) Create() models.Session {
	sess := &models.Session{
		ID:        uuid.New().String(),
		Status:    models.SessionStatusRecording,
		StartTime: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return *sess
}

// Get returns a snapshot of the session, or false if unknown.
func (s *Store) Get(id string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return *sess, true
}

// Update applies mutate to the session under the store lock and returns the
// resulting snapshot. Returns ErrNotFound if the session does not exist,
// which is how a stop-recording that raced a reap sweep loses cleanly.
func (s *Store) Update(id string, mutate func(*models.Session)) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	mutate(sess)
	return *sess, nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Snapshot returns copies of all sessions, in no particular order.
func (s *Store) Snapshot() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
