package console

import (
	"sort"
	"sync"
	"time"
)

// Session describes one connected operator.
type Session struct {
	ID         string
	User       string
	RemoteAddr string
	Term       string
	StartTime  time.Time
}

// Registry tracks active console sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
}

// NewRegistry returns a registry admitting at most max sessions (0 for no
// limit).
func NewRegistry(max int) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		max:      max,
	}
}

// Register adds s unless the registry is full.
func (r *Registry) Register(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return false
	}
	r.sessions[s.ID] = s
	return true
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// ListActive returns the sessions oldest first.
func (r *Registry) ListActive() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ID < result[j].ID
	})
	return result
}
