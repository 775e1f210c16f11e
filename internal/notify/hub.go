// Package notify fans record change events out to in-process listeners and,
// optionally, to other processes through Redis pub/sub.
package notify

import (
	"context"
	"sync"

	"tutorbook/internal/core"
)

// Event announces that a user's collection gained a record.
type Event struct {
	UserID     string          `json:"userId"`
	Collection core.Collection `json:"collection"`
}

// Listener is invoked synchronously on the publishing goroutine.
type Listener func(Event)

// Publisher announces change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type subscription struct {
	id int
	fn Listener
}

// Hub is the in-process listener registry.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[Event][]subscription
}

var _ Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{listeners: make(map[Event][]subscription)}
}

// Subscribe registers fn for one user's collection. The returned func removes it.
func (h *Hub) Subscribe(userID string, c core.Collection, fn Listener) (cancel func()) {
	key := Event{UserID: userID, Collection: c}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[key] = append(h.listeners[key], subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(key, id) })
	}
}

func (h *Hub) remove(key Event, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.listeners[key]
	for i, s := range subs {
		if s.id == id {
			h.listeners[key] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(h.listeners[key]) == 0 {
		delete(h.listeners, key)
	}
}

// Publish calls every listener registered for the event's user and collection.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	subs := append([]subscription(nil), h.listeners[ev]...)
	h.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
	return nil
}

// Count returns the number of listeners for a user's collection.
func (h *Hub) Count(userID string, c core.Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[Event{UserID: userID, Collection: c}])
}
