// Package agent declares the external collaborators the gateway depends
// on but does not implement: the LLM agent turn itself, and the
// memory/keyword search index it may consult. Both are out of scope for
// this system; only their contracts matter here.
package agent

import (
	"context"

	"github.com/padaemon/padaemon/internal/session"
)

// Options is opaque configuration handed through to a Turn invocation
// (model name, max turns, etc.) — the gateway never inspects its fields,
// it only threads it from config to the agent.
type Options struct {
	Model    string
	MaxTurns int
}

// Turn runs one external agent turn for a single incoming prompt and
// returns the sequence of session messages it produced, ending in an
// assistant response. The gateway awaits exactly one Turn call at a time.
type Turn func(ctx context.Context, text string, sessionKey string, opts Options) ([]session.Message, error)

// MemorySearch is the contract for the external vector/keyword memory
// index. The gateway does not call it directly; it is part of the
// agent's own tool surface, declared here only as a named contract;
// Options carries no MemorySearch and nothing in this module wires one.
type MemorySearch interface {
	Search(ctx context.Context, query string, limit int) ([]MemoryResult, error)
}

// MemoryResult is one hit from a MemorySearch call.
type MemoryResult struct {
	Path    string
	Excerpt string
	Score   float64
}
