package adapter

import (
	"context"
	"sync"

	"github.com/padaemon/padaemon/internal/logging"
)

// Router indexes adapters by name and dispatches outbound replies to the
// adapter matching a message's Source. It never reorders or batches sends.
type Router struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{adapters: make(map[string]Adapter)}
}

// Register indexes adapter by its Name().
func (r *Router) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// SendResponse dispatches msg to the adapter named msg.Source. An unknown
// source is a logged no-op, not an error, since a heartbeat or cron reply
// destined for a transport that was never registered must not crash the
// gateway loop.
func (r *Router) SendResponse(ctx context.Context, msg Message) error {
	r.mu.RLock()
	a, ok := r.adapters[msg.Source]
	r.mu.RUnlock()
	if !ok {
		logging.Warn("router: no adapter registered for source", "source", msg.Source)
		return nil
	}
	return a.SendResponse(ctx, msg)
}

// Adapters returns a snapshot of all registered adapters.
func (r *Router) Adapters() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}
