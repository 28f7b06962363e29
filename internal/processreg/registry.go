// Package processreg tracks background and yielded shell executions by an
// opaque session id, with a time-to-live sweep.
package processreg

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTL is the maximum age a session may reach before Sweep evicts it.
const TTL = 30 * time.Minute

// Session describes one tracked child process.
type Session struct {
	ID        string
	Command   string
	PID       int
	Output    string
	ExitCode  *int
	StartedAt time.Time
	ExitedAt  *time.Time
}

// Registry is the thread-safe process table. Owned by a single long-lived
// component (the executor's caller) and injected wherever it is needed —
// never a package-level singleton, so tests get a fresh instance.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a new session for command/pid and returns its id.
func (r *Registry) Add(command string, pid int) string {
	id := uuid.New().String()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &Session{
		ID:        id,
		Command:   command,
		PID:       pid,
		StartedAt: time.Now(),
	}
	return id
}

// Get returns a copy of the session for id, or nil if unknown.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	clone := *s
	return &clone
}

// AppendOutput appends to a session's accumulated output. No-op for an
// unknown id.
func (r *Registry) AppendOutput(id, chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Output += chunk
	}
}

// MarkExited records the exit code and time for id. No-op for an unknown
// id.
func (r *Registry) MarkExited(id string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	now := time.Now()
	s.ExitCode = &code
	s.ExitedAt = &now
}

// List returns a snapshot of all tracked sessions.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		clone := *s
		out = append(out, &clone)
	}
	return out
}

// Sweep removes sessions older than TTL. It takes the lock only for the
// duration of the scan/delete and never blocks on anything else, so it is
// safe to call opportunistically from any goroutine.
func (r *Registry) Sweep() {
	cutoff := time.Now().Add(-TTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.StartedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// Clear removes all sessions.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}
