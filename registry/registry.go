// Package registry maps logged-in subjects (user or account ids) to live
// push handles and evicts handles that prove unreachable.
package registry

import (
	"log"
	"sync"
)

// Callback is a handle the server uses to push one event to one subscriber.
// Implementations wrap a socket connection in production and a buffer in
// tests.
type Callback interface {
	Send(event string, payload any) error
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Callback
}

func New() *Registry {
	return &Registry{clients: make(map[string]Callback)}
}

// Register installs cb for subject, replacing any prior handle.
func (r *Registry) Register(subject string, cb Callback) {
	r.mu.Lock()
	r.clients[subject] = cb
	r.mu.Unlock()
	log.Printf("client registered: %s", subject)
}

// Unregister removes the handle for subject. Safe if absent.
func (r *Registry) Unregister(subject string) {
	r.mu.Lock()
	delete(r.clients, subject)
	r.mu.Unlock()
	log.Printf("client unregistered: %s", subject)
}

// Registered reports whether subject currently has a handle.
func (r *Registry) Registered(subject string) bool {
	r.mu.RLock()
	_, ok := r.clients[subject]
	r.mu.RUnlock()
	return ok
}

// Push delivers one event to subject, fire-and-forget. The handle is read
// under the lock but invoked outside it. On failure the handle is evicted
// with a compare-and-remove so a concurrent re-register is not clobbered,
// and false is returned. No retry happens at this layer.
func (r *Registry) Push(subject string, event string, payload any) bool {
	r.mu.RLock()
	cb, ok := r.clients[subject]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if err := cb.Send(event, payload); err != nil {
		log.Printf("push %s to %s failed, evicting: %v", event, subject, err)
		r.evict(subject, cb)
		return false
	}
	return true
}

// Broadcast pushes to every registered subject matching pred (nil matches
// all). Failing handles are evicted.
func (r *Registry) Broadcast(event string, payload any, pred func(subject string) bool) {
	r.mu.RLock()
	targets := make(map[string]Callback, len(r.clients))
	for subject, cb := range r.clients {
		if pred == nil || pred(subject) {
			targets[subject] = cb
		}
	}
	r.mu.RUnlock()

	for subject, cb := range targets {
		if err := cb.Send(event, payload); err != nil {
			log.Printf("broadcast %s to %s failed, evicting: %v", event, subject, err)
			r.evict(subject, cb)
		}
	}
}

func (r *Registry) evict(subject string, failed Callback) {
	r.mu.Lock()
	if current, ok := r.clients[subject]; ok && current == failed {
		delete(r.clients, subject)
	}
	r.mu.Unlock()
}
