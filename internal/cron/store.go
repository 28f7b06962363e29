package cron

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/padaemon/padaemon/internal/logging"
)

// externalWriteDebounce is how long after our own save we ignore
// filesystem events for the store's own path, so Watch doesn't treat
// our own atomic rename as an external edit.
const externalWriteDebounce = 500 * time.Millisecond

// Store persists the JSON array of jobs at path, rewritten atomically via
// a .tmp file and rename, with a .bak of the previous contents kept on
// every save when a prior file existed.
type Store struct {
	path string
	mu   sync.RWMutex
	jobs map[string]*Job

	lastLocalWrite time.Time
	watcher        *fsnotify.Watcher
	watchDone      chan struct{}
}

// NewStore returns a store backed by path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{path: path, jobs: make(map[string]*Job)}
}

func nowUTC() time.Time { return time.Now().UTC() }

// Load reads the job array from disk. A missing file yields an empty
// store, not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.jobs = make(map[string]*Job)
			return nil
		}
		return fmt.Errorf("cron store: read %s: %w", s.path, err)
	}

	var jobs []*Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("cron store: parse %s: %w", s.path, err)
	}

	s.jobs = make(map[string]*Job, len(jobs))
	for _, j := range jobs {
		if j.ID == "" {
			continue
		}
		s.jobs[j.ID] = j
	}
	return nil
}

func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("cron store: mkdir %s: %w", dir, err)
	}

	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("cron store: marshal: %w", err)
	}

	if prior, err := os.ReadFile(s.path); err == nil {
		_ = os.WriteFile(s.path+".bak", prior, 0o600)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("cron store: write temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cron store: rename: %w", err)
	}
	s.lastLocalWrite = time.Now()
	return nil
}

// Watch starts watching the store's directory for external edits to its
// file (a hand-edited job file, a restored backup, a config-management
// drop-in). On a change it isn't the author of, it reloads from disk and
// calls onChange. Watch is idempotent; calling it twice is a no-op.
func (s *Store) Watch(onChange func()) error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("cron store: mkdir %s: %w", dir, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("cron store: new watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close() //nolint:errcheck
		s.mu.Unlock()
		return fmt.Errorf("cron store: watch %s: %w", dir, err)
	}
	s.watcher = w
	s.watchDone = make(chan struct{})
	done := s.watchDone
	s.mu.Unlock()

	go s.watchLoop(w, done, onChange)
	return nil
}

func (s *Store) watchLoop(w *fsnotify.Watcher, done chan struct{}, onChange func()) {
	defer close(done)
	target := filepath.Base(s.path)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}

			s.mu.RLock()
			recent := time.Since(s.lastLocalWrite) < externalWriteDebounce
			s.mu.RUnlock()
			if recent {
				continue
			}

			if err := s.Load(); err != nil {
				logging.Warn("cron: reload after external edit failed", "path", s.path, "error", err)
				continue
			}
			logging.Info("cron: reloaded after external edit", "path", s.path)
			if onChange != nil {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logging.Warn("cron: watcher error", "error", err)
		}
	}
}

// StopWatch stops the file watcher started by Watch. Safe to call even
// if Watch was never called.
func (s *Store) StopWatch() {
	s.mu.Lock()
	w := s.watcher
	done := s.watchDone
	s.watcher = nil
	s.watchDone = nil
	s.mu.Unlock()

	if w == nil {
		return
	}
	w.Close() //nolint:errcheck
	if done != nil {
		<-done
	}
}

// All returns every job, unordered.
func (s *Store) All() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	return out
}

// Get returns the job with id, or nil.
func (s *Store) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	return j.Clone()
}

// Add creates label/schedule/payload, persists, and returns the new job.
func (s *Store) Add(label string, schedule Schedule, payload Payload) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		Label:     label,
		Schedule:  schedule,
		Payload:   payload,
		CreatedAt: nowUTC(),
		Enabled:   true,
	}
	s.jobs[job.ID] = job
	if err := s.saveLocked(); err != nil {
		delete(s.jobs, job.ID)
		return nil, err
	}
	return job.Clone(), nil
}

// Update merges patch fields into the job with id and persists. Unknown
// id returns an error the caller renders as "not found".
func (s *Store) Update(id string, patch JobPatch) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Label != nil {
		job.Label = *patch.Label
	}
	if patch.Schedule != nil {
		job.Schedule = *patch.Schedule
	}
	if patch.Payload != nil {
		job.Payload = *patch.Payload
	}
	if patch.Enabled != nil {
		job.Enabled = *patch.Enabled
	}
	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return job.Clone(), nil
}

// Remove deletes the job with id and persists. Unknown id returns
// ErrNotFound.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return s.saveLocked()
}

// MarkFired sets lastFiredAt=firedAt, persists, and (if the job is a
// one-shot with DeleteAfterRun) removes it.
func (s *Store) MarkFired(id string, firedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.LastFiredAt = &firedAt

	if job.Schedule.Type == ScheduleOneShot && job.DeleteAfterRun {
		delete(s.jobs, id)
		if err := s.saveLocked(); err != nil {
			logging.Warn("cron: persist after delete-after-run failed", "job", id, "error", err)
			return err
		}
		return nil
	}

	if err := s.saveLocked(); err != nil {
		logging.Warn("cron: persist lastFiredAt failed", "job", id, "error", err)
		return err
	}
	return nil
}

// ErrNotFound is returned by Update/Remove for an unknown job id.
var ErrNotFound = fmt.Errorf("cron: job not found")

// JobPatch carries only the fields Update should change.
type JobPatch struct {
	Label    *string
	Schedule *Schedule
	Payload  *Payload
	Enabled  *bool
}
