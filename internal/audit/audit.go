// Package audit appends a daily JSONL trail of executed shell commands
// to {workspace}/daily/{YYYY-MM-DD}.jsonl. It is additive telemetry:
// losing a write never blocks or fails the caller.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/padaemon/padaemon/internal/logging"
)

// Entry is one audited command attempt.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	SessionKey string    `json:"sessionKey,omitempty"`
	Command    string    `json:"command"`
	Allowed    bool      `json:"allowed"`
	Reason     string    `json:"reason,omitempty"`
}

// Log writes audit entries under a workspace root, one file per UTC day.
type Log struct {
	mu        sync.Mutex
	workspace string
}

// New returns a Log rooted at workspace.
func New(workspace string) *Log {
	return &Log{workspace: workspace}
}

// LogCommand implements execsvc.AuditSink. The executor runs behind the
// external agent's tool surface and has no session key to attach; Entry
// carries one anyway (SessionKey, left blank here) so a future caller
// that does know the originating conversation can populate it without a
// schema change.
func (l *Log) LogCommand(command string, allowed bool, reason string) {
	l.append(Entry{Timestamp: time.Now().UTC(), Command: command, Allowed: allowed, Reason: reason})
}

func (l *Log) append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Join(l.workspace, "daily")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		logging.Warn("audit: failed to create daily dir", "dir", dir, "error", err)
		return
	}
	path := filepath.Join(dir, entry.Timestamp.Format("2006-01-02")+".jsonl")

	data, err := json.Marshal(entry)
	if err != nil {
		logging.Warn("audit: failed to marshal entry", "error", err)
		return
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		logging.Warn("audit: failed to open daily log", "path", path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		logging.Warn("audit: failed to append entry", "path", path, "error", err)
	}
}
