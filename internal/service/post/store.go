package post

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/solace/backend/internal/model/post"
	"github.com/zhouzirui/solace/backend/internal/service/session"
)

var ErrPostNotFound = errors.New("post not found")

// Store keeps every post in insertion order. It is the only writer of post records
// and the only caller of Registry.RecordPost.
type Store struct {
	mu       sync.RWMutex
	posts    []post.Post
	index    map[string]int
	sessions *session.Registry
	newID    func() string
	now      func() time.Time
}

// NewStore bootstraps an empty in-memory store bound to a session registry.
func NewStore(sessions *session.Registry) *Store {
	return &Store{
		posts:    make([]post.Post, 0, 64),
		index:    make(map[string]int),
		sessions: sessions,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Sessions exposes the registry the store records against.
func (s *Store) Sessions() *session.Registry {
	return s.sessions
}

// Create appends a new post owned by sessionID and counts it against the session.
func (s *Store) Create(_ context.Context, sessionID, content, emotion string) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.RecordPost(sessionID); err != nil {
		return post.Post{}, fmt.Errorf("create post: %w", err)
	}

	id := s.newID()
	for s.taken(id) {
		id = s.newID()
	}

	p := post.Post{
		ID:        id,
		SessionID: sessionID,
		Content:   content,
		Emotion:   emotion,
		Timestamp: s.now(),
	}

	s.index[p.ID] = len(s.posts)
	s.posts = append(s.posts, p)
	return p, nil
}

// List returns a copy of all posts, restricted to an exact emotion match when
// emotion is non-empty.
func (s *Store) List(_ context.Context, emotion string) []post.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if emotion == "" {
		copied := make([]post.Post, len(s.posts))
		copy(copied, s.posts)
		return copied
	}

	filtered := make([]post.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.Emotion == emotion {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Get returns a snapshot of a single post.
func (s *Store) Get(_ context.Context, postID string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[postID]
	if !ok {
		return post.Post{}, ErrPostNotFound
	}
	return s.posts[i], nil
}

// Upvote adds exactly one vote and returns the updated post.
func (s *Store) Upvote(_ context.Context, postID string) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[postID]
	if !ok {
		return post.Post{}, ErrPostNotFound
	}
	s.posts[i].Upvotes++
	return s.posts[i], nil
}

// FindSimilar returns up to limit posts sharing emotion from sessions other than
// sessionID, in insertion order.
func (s *Store) FindSimilar(_ context.Context, sessionID, emotion string, limit int) []post.Post {
	if limit <= 0 {
		return []post.Post{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	similar := make([]post.Post, 0, limit)
	for _, p := range s.posts {
		if p.SessionID == sessionID || p.Emotion != emotion {
			continue
		}
		similar = append(similar, p)
		if len(similar) == limit {
			break
		}
	}
	return similar
}

func (s *Store) taken(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len reports how many posts are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}
