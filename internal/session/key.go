// Package session implements the session-key scheme and the append-only
// JSONL transcript store.
package session

import "strings"

// Separator joins the components of a session key.
const Separator = "--"

// ResolveKey derives the durable conversation identifier from a source
// name, an opaque source id, and an optional thread id. It is pure: equal
// inputs always yield the same key, and omitting threadId is equivalent
// to passing an empty string.
func ResolveKey(source, sourceID, threadID string) string {
	parts := make([]string, 0, 3)
	if source != "" {
		parts = append(parts, source)
	}
	if sourceID != "" {
		parts = append(parts, sourceID)
	}
	if threadID != "" {
		parts = append(parts, threadID)
	}
	return strings.Join(parts, Separator)
}
