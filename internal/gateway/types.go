// Package gateway implements the bounded single-consumer inbound queue:
// every adapter message and every heartbeat tick funnels through one
// FIFO so at most one agent turn ever runs at a time.
package gateway

import "time"

// Inbound is one item waiting for an agent turn.
type Inbound struct {
	Source      string
	SourceID    string
	ThreadID    string
	Text        string
	IsHeartbeat bool
	// DeliverTo is only set for heartbeat items: the "source--sourceId"
	// destination a non-suppressed reply is routed to.
	DeliverTo  string
	EnqueuedAt time.Time
}

// DefaultMaxQueueSize is used when Config.MaxQueueSize is zero.
const DefaultMaxQueueSize = 20
