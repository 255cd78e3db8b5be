package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/solace/backend/internal/model/post"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry owns every session for the lifetime of the process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*post.Session
	newID    func() string
	now      func() time.Time
}

// NewRegistry returns an empty registry minting random UUIDs.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*post.Session),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ResolveOrCreate returns candidateID when it names a known session, otherwise it
// registers a fresh session and returns its identifier.
func (r *Registry) ResolveOrCreate(candidateID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if candidateID != "" {
		if _, ok := r.sessions[candidateID]; ok {
			return candidateID
		}
	}

	id := r.newID()
	for r.sessions[id] != nil {
		id = r.newID()
	}

	r.sessions[id] = &post.Session{
		ID:        id,
		CreatedAt: r.now(),
	}
	return id
}

// RecordPost bumps the post counter of a known session.
func (r *Registry) RecordPost(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.PostCount++
	return nil
}

// Get returns a snapshot of the session.
func (r *Registry) Get(sessionID string) (post.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return post.Session{}, ErrSessionNotFound
	}
	return *s, nil
}

// Len reports how many sessions exist.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
