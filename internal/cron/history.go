package cron

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/padaemon/padaemon/internal/logging"
)

// MaxHistoryEntries caps how many run records are kept per job (spec
// SPEC_FULL.md §C.1); older entries are dropped on rewrite.
const MaxHistoryEntries = 200

// HistoryEntry is one recorded firing of a job.
type HistoryEntry struct {
	FiredAt time.Time `json:"firedAt"`
	Label   string    `json:"label"`
	Text    string    `json:"text,omitempty"`
}

// History appends job-firing records to a per-job JSONL file under
// {dataDir}/cron-history/{jobId}.jsonl, trimmed to MaxHistoryEntries.
type History struct {
	dir string
	mu  sync.Mutex
}

// NewHistory returns a History rooted at dataDir.
func NewHistory(dataDir string) *History {
	return &History{dir: filepath.Join(dataDir, "cron-history")}
}

func (h *History) pathFor(jobID string) string {
	return filepath.Join(h.dir, jobID+".jsonl")
}

// Record appends a firing entry for job and trims the file to the most
// recent MaxHistoryEntries lines. Failures are logged and swallowed,
// matching the audit log's best-effort semantics.
func (h *History) Record(job *Job, firedAt time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.dir, 0o700); err != nil {
		logging.Warn("cron history: mkdir failed", "error", err)
		return
	}

	entries, err := h.readAllLocked(job.ID)
	if err != nil {
		logging.Warn("cron history: read failed", "job", job.ID, "error", err)
		entries = nil
	}

	entries = append(entries, HistoryEntry{FiredAt: firedAt, Label: job.Label, Text: job.Payload.Text})
	if len(entries) > MaxHistoryEntries {
		entries = entries[len(entries)-MaxHistoryEntries:]
	}

	if err := h.writeAllLocked(job.ID, entries); err != nil {
		logging.Warn("cron history: write failed", "job", job.ID, "error", err)
	}
}

func (h *History) readAllLocked(jobID string) ([]HistoryEntry, error) {
	f, err := os.Open(h.pathFor(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			logging.Warn("cron history: skipping malformed line", "job", jobID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func (h *History) writeAllLocked(jobID string, entries []HistoryEntry) error {
	path := h.pathFor(jobID)
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cron history: open temp: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			f.Close()
			return fmt.Errorf("cron history: marshal: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("cron history: write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("cron history: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cron history: close: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load returns the run history for a job, oldest first.
func (h *History) Load(jobID string) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readAllLocked(jobID)
}
