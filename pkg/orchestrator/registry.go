package orchestrator

import (
	"sort"
	"sync"
)

// Key identifies a wired listener: one remote event feeding one notification type.
type Key struct {
	Event string `json:"event"`
	Type  string `json:"type"`
}

// Registry records which (event, type) pairs already have a transport listener.
// It only grows; Release exists solely to undo a claim whose attach failed.
type Registry struct {
	mu   sync.Mutex
	keys map[Key]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[Key]struct{})}
}

// Claim marks k as registered. It returns true only for the caller that
// inserted k, so exactly one caller attaches the listener.
func (r *Registry) Claim(k Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[k]; ok {
		return false
	}
	r.keys[k] = struct{}{}
	return true
}

// Release removes a claim whose listener could not be attached.
func (r *Registry) Release(k Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, k)
}

// Has reports whether k is registered.
func (r *Registry) Has(k Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[k]
	return ok
}

// Keys returns a sorted snapshot.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	out := make([]Key, 0, len(r.keys))
	for k := range r.keys {
		out = append(out, k)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Event != out[j].Event {
			return out[i].Event < out[j].Event
		}
		return out[i].Type < out[j].Type
	})
	return out
}
