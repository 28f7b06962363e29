package heartbeat

import (
	"regexp"
)

// okSentinel matches a reply that is exactly HEARTBEAT_OK, case
// insensitive, tolerant of surrounding whitespace.
var okSentinel = regexp.MustCompile(`(?i)^\s*HEARTBEAT_OK\s*$`)

// IsOK reports whether text is the HEARTBEAT_OK suppression sentinel:
// when an agent turn replies with nothing but this token, the reply is
// swallowed rather than delivered to any adapter.
func IsOK(text string) bool {
	return okSentinel.MatchString(text)
}
