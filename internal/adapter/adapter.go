// Package adapter defines the inbound/outbound transport contract and
// the router that dispatches outbound replies back to the adapter that
// originated a conversation.
package adapter

import "context"

// Message is the normalized unit that flows from a transport into the
// gateway, and back out again as a reply.
type Message struct {
	Source   string
	SourceID string
	Text     string
	Metadata map[string]any
}

// ThreadID extracts metadata["threadId"] as a string, if present.
func (m Message) ThreadID() string {
	if m.Metadata == nil {
		return ""
	}
	v, ok := m.Metadata["threadId"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MessageHandler is the callback a transport invokes for every inbound
// message it decides to forward (after dropping bot echoes etc).
type MessageHandler func(Message)

// Adapter is the polymorphic transport contract every concrete channel
// (Telegram, Slack, ...) implements. The onMessage callback is supplied at
// construction time, not part of this interface, since each adapter wires
// it into its own transport-specific receive loop.
type Adapter interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SendResponse(ctx context.Context, msg Message) error
}
