package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/sysevent"
)

// Config controls whether and how often the heartbeat fires.
type Config struct {
	Enabled     bool
	IntervalMs  int64
	ActiveHours ActiveHours
	Prompt      string

	// DeliverTo names the single destination a non-suppressed heartbeat
	// reply is routed to, encoded as "source--sourceId" (the same "--"
	// join the session-key scheme uses). Empty disables reply delivery;
	// the turn still runs and is still persisted to the transcript.
	DeliverTo string
}

// Enqueuer is the gateway's inbound side: the heartbeat scheduler never
// invokes the agent directly, it hands its composed prompt to the
// single-consumer gateway queue under the "heartbeat" source so the
// one-turn-at-a-time invariant holds across both paths. deliverTo is
// passed through unchanged so the gateway knows where to route a reply.
type Enqueuer interface {
	EnqueueHeartbeat(ctx context.Context, text, deliverTo string) error
}

// Scheduler ticks at Config.IntervalMs, and on every tick gated by
// active hours drains the system-event queue and enqueues a heartbeat
// turn. A disabled config makes Start a no-op.
type Scheduler struct {
	cfg    Config
	events *sysevent.Queue
	sink   Enqueuer
	clock  func() time.Time

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New builds a Scheduler whose clock is time.Now; tests in this package
// replace the clock field to exercise active-hours gating.
func New(cfg Config, events *sysevent.Queue, sink Enqueuer) *Scheduler {
	return &Scheduler{cfg: cfg, events: events, sink: sink, clock: time.Now}
}

// Start launches the tick loop in a goroutine. A disabled scheduler, or
// one with a non-positive interval, returns immediately without
// starting anything.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	if !s.cfg.Enabled || s.cfg.IntervalMs <= 0 {
		logging.Info("heartbeat: disabled, not starting")
		return
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	interval := time.Duration(s.cfg.IntervalMs) * time.Millisecond
	go s.loop(ctx, interval)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration) {
	defer close(s.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock()
	if !s.cfg.ActiveHours.Contains(now.Hour()) {
		logging.Debug("heartbeat: outside active hours, skipping tick", "hour", now.Hour())
		return
	}

	drained := s.events.Drain()
	prompt := BuildPrompt(s.cfg.Prompt, drained, now)

	if err := s.sink.EnqueueHeartbeat(ctx, prompt, s.cfg.DeliverTo); err != nil {
		logging.Warn("heartbeat: enqueue failed", "error", err)
	}
}

// Stop halts the tick loop and waits for it to exit. Safe to call on an
// unstarted or already-stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
}
