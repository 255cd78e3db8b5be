package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/solace/backend/internal/model/post"
)

// EventType names a change to the community feed.
type EventType string

const (
	PostCreated EventType = "post.created"
	PostUpvoted EventType = "post.upvoted"
)

const defaultBuffer = 32

// Event is pushed to live feed subscribers. Posts are always anonymized.
type Event struct {
	Type      EventType `json:"type"`
	Post      post.View `json:"post"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event for p.
func NewEvent(t EventType, p post.Post) Event {
	return Event{Type: t, Post: p.Anonymize(), Timestamp: time.Now().UTC()}
}

// Hub fans feed events out to subscribers. A subscriber whose buffer is full misses
// the event; publishers never block.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	next        uint64
	buffer      int
	closed      bool
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Hub{
		subscribers: make(map[uint64]chan Event),
		buffer:      buffer,
	}
}

// Subscribe registers a listener. The returned cancel func is idempotent and closes
// the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(sub)
			}
		})
	}
}

// Publish delivers evt to every subscriber with room and returns how many got it.
func (h *Hub) Publish(evt Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, ch := range h.subscribers {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Run blocks until ctx is done, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Close()
	return nil
}

// Close disconnects all subscribers; later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
