package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/padaemon/padaemon/internal/adapter"
	"github.com/padaemon/padaemon/internal/agent"
	"github.com/padaemon/padaemon/internal/heartbeat"
	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/session"
)

const heartbeatSource = "heartbeat"

// Config carries the gateway's tunables.
type Config struct {
	MaxQueueSize int
	DataDir      string
	AgentOptions agent.Options
}

// Gateway owns the single-consumer loop that turns adapter messages and
// heartbeat ticks into agent turns, one at a time.
type Gateway struct {
	cfg    Config
	turn   agent.Turn
	store  *session.Store
	router *adapter.Router

	queue  *inboundQueue
	wakeCh chan struct{}

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New builds a Gateway. turn is the external agent invocation; store
// and router are the transcript and delivery collaborators.
func New(cfg Config, turn agent.Turn, store *session.Store, router *adapter.Router) *Gateway {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultMaxQueueSize
	}
	return &Gateway{
		cfg:    cfg,
		turn:   turn,
		store:  store,
		router: router,
		queue:  newInboundQueue(cfg.MaxQueueSize),
		wakeCh: make(chan struct{}, 1),
	}
}

// Enqueue accepts an adapter message for the next available agent turn.
// Returns an error only if the queue is at capacity; the caller (an
// adapter) is expected to drop the message and move on, which Start's
// caller surfaces as a logged warning either way.
func (g *Gateway) Enqueue(ctx context.Context, msg adapter.Message) error {
	item := Inbound{
		Source:     msg.Source,
		SourceID:   msg.SourceID,
		ThreadID:   msg.ThreadID(),
		Text:       msg.Text,
		EnqueuedAt: time.Now(),
	}
	return g.enqueue(item)
}

// EnqueueHeartbeat implements heartbeat.Enqueuer: the heartbeat scheduler
// never talks to the agent directly, it goes through this same queue so
// the single-flight invariant holds across both inbound paths. deliverTo
// is the "source--sourceId" destination a non-suppressed reply is later
// routed to; empty means no reply is routed regardless of content.
func (g *Gateway) EnqueueHeartbeat(ctx context.Context, text, deliverTo string) error {
	item := Inbound{
		Source:      heartbeatSource,
		Text:        text,
		IsHeartbeat: true,
		DeliverTo:   deliverTo,
		EnqueuedAt:  time.Now(),
	}
	return g.enqueue(item)
}

func (g *Gateway) enqueue(item Inbound) error {
	if !g.queue.push(item) {
		logging.Warn("gateway: queue full, dropping message", "source", item.Source, "queueSize", g.cfg.MaxQueueSize)
		return fmt.Errorf("gateway: queue full (capacity %d)", g.cfg.MaxQueueSize)
	}
	select {
	case g.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the single consumer goroutine.
func (g *Gateway) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.stopCh = make(chan struct{})
	g.doneCh = make(chan struct{})
	g.running = true
	go g.processLoop(ctx)
}

func (g *Gateway) processLoop(ctx context.Context) {
	defer close(g.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.stopCh:
			return
		default:
		}
		item, ok := g.queue.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-g.stopCh:
				return
			case <-g.wakeCh:
				continue
			}
		}
		g.handle(ctx, item)
	}
}

func (g *Gateway) handle(ctx context.Context, item Inbound) {
	sessionKey := g.sessionKeyFor(item)

	messages, err := g.turn(ctx, item.Text, sessionKey, g.cfg.AgentOptions)
	if err != nil {
		logging.Warn("gateway: agent turn failed", "source", item.Source, "sessionKey", sessionKey, "error", err)
		if !item.IsHeartbeat {
			g.bestEffortErrorReply(ctx, item)
		}
		return
	}

	finalText := lastAssistantText(messages)
	if item.IsHeartbeat && heartbeat.IsOK(finalText) {
		logging.Debug("gateway: heartbeat suppressed", "sessionKey", sessionKey)
		return
	}

	if err := g.persist(sessionKey, messages); err != nil {
		logging.Warn("gateway: transcript append failed", "sessionKey", sessionKey, "error", err)
	}

	g.deliver(ctx, item, finalText)
}

func (g *Gateway) sessionKeyFor(item Inbound) string {
	if item.IsHeartbeat {
		sourceID := item.DeliverTo
		if sourceID == "" {
			sourceID = "system"
		}
		return session.ResolveKey(heartbeatSource, sourceID, "")
	}
	return session.ResolveKey(item.Source, item.SourceID, item.ThreadID)
}

func (g *Gateway) persist(sessionKey string, messages []session.Message) error {
	if g.store == nil || len(messages) == 0 {
		return nil
	}
	path := session.PathFor(g.cfg.DataDir, sessionKey)
	return g.store.AppendMessages(path, messages)
}

func (g *Gateway) deliver(ctx context.Context, item Inbound, text string) {
	if text == "" {
		return
	}
	if item.IsHeartbeat {
		g.deliverHeartbeat(ctx, item, text)
		return
	}
	reply := adapter.Message{Source: item.Source, SourceID: item.SourceID, Text: text}
	if item.ThreadID != "" {
		reply.Metadata = map[string]any{"threadId": item.ThreadID}
	}
	if err := g.router.SendResponse(ctx, reply); err != nil {
		logging.Warn("gateway: reply delivery failed", "source", item.Source, "error", err)
	}
}

// deliverHeartbeat routes a non-suppressed heartbeat reply to the single
// destination named by item.DeliverTo, an encoded "source--sourceId"
// (optionally "--threadId") string. An empty DeliverTo means no
// destination was configured; the reply is dropped, not broadcast.
func (g *Gateway) deliverHeartbeat(ctx context.Context, item Inbound, text string) {
	if item.DeliverTo == "" {
		logging.Debug("gateway: heartbeat reply has no deliverTo destination, dropping")
		return
	}
	source, sourceID, threadID, err := splitDeliverTo(item.DeliverTo)
	if err != nil {
		logging.Warn("gateway: heartbeat deliverTo malformed, dropping", "deliverTo", item.DeliverTo, "error", err)
		return
	}
	reply := adapter.Message{Source: source, SourceID: sourceID, Text: text}
	if threadID != "" {
		reply.Metadata = map[string]any{"threadId": threadID}
	}
	if err := g.router.SendResponse(ctx, reply); err != nil {
		logging.Warn("gateway: heartbeat reply delivery failed", "deliverTo", item.DeliverTo, "error", err)
	}
}

// splitDeliverTo parses a "source--sourceId" or "source--sourceId--threadId"
// encoded destination, mirroring the session-key join scheme.
func splitDeliverTo(deliverTo string) (source, sourceID, threadID string, err error) {
	parts := strings.Split(deliverTo, session.Separator)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("gateway: want \"source--sourceId\", got %q", deliverTo)
	}
	source, sourceID = parts[0], parts[1]
	if len(parts) > 2 {
		threadID = parts[2]
	}
	return source, sourceID, threadID, nil
}

func (g *Gateway) bestEffortErrorReply(ctx context.Context, item Inbound) {
	reply := adapter.Message{Source: item.Source, SourceID: item.SourceID, Text: "Something went wrong processing that. Please try again."}
	if err := g.router.SendResponse(ctx, reply); err != nil {
		logging.Warn("gateway: error reply delivery failed", "source", item.Source, "error", err)
	}
}

func lastAssistantText(messages []session.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}

// Stop halts the consumer loop after its in-flight turn and waits for the
// loop to exit. Items still queued at that point are not processed.
func (g *Gateway) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	close(g.stopCh)
	done := g.doneCh
	g.mu.Unlock()

	<-done
}

// QueueLen reports the current backlog, for status/diagnostics surfaces.
func (g *Gateway) QueueLen() int {
	return g.queue.len()
}
