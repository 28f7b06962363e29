package cron

import (
	"sync"
	"time"

	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/sysevent"
)

// Owner arms a single timer for the store's earliest due job, fires it,
// persists lastFiredAt, publishes a system event, and re-arms for
// whatever is due next. Only one timer is ever outstanding.
type Owner struct {
	store   *Store
	events  *sysevent.Queue
	history *History

	mu        sync.Mutex
	timer     *time.Timer
	stopped   bool
	onJobFire func(job *Job)
}

// NewOwner builds an Owner over store, publishing fired jobs onto events
// and recording each firing in history.
func NewOwner(store *Store, events *sysevent.Queue, history *History) *Owner {
	return &Owner{store: store, events: events, history: history}
}

// OnJobFired installs a hook invoked synchronously whenever a job fires,
// in addition to the system-event publication. Tests use this to observe
// fires without scraping the event queue.
func (o *Owner) OnJobFired(fn func(job *Job)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onJobFire = fn
}

// Rearm cancels any outstanding timer and schedules the next one against
// the store's current earliest due job. Call after every store mutation
// that could change what's due next (add/update/remove/fire).
func (o *Owner) Rearm() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rearmLocked()
}

func (o *Owner) rearmLocked() {
	if o.stopped {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}

	due := Earliest(o.store.All(), nowUTC())
	if due == nil {
		return
	}

	delay := clampDelay(time.Until(due.next))
	jobID, deadline := due.job.ID, due.next
	o.timer = time.AfterFunc(delay, func() { o.fire(jobID, deadline) })
}

// fire handles the job captured at arm time. Recomputing the earliest job
// here would not find it: a due one-shot has no next run any more, and a
// cron job's next run has moved on to its following slot.
func (o *Owner) fire(jobID string, deadline time.Time) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	now := nowUTC()
	if now.Before(deadline) {
		// clamp expired before the real deadline; re-arm for the remainder
		o.Rearm()
		return
	}
	job := o.store.Get(jobID)
	if job == nil {
		o.Rearm()
		return
	}

	if err := o.store.MarkFired(job.ID, now); err != nil {
		logging.Warn("cron: mark fired failed", "job", job.ID, "error", err)
	}

	o.events.Enqueue(formatFireText(job), sysevent.TypeCron)
	if o.history != nil {
		o.history.Record(job, now)
	}

	o.mu.Lock()
	hook := o.onJobFire
	o.mu.Unlock()
	if hook != nil {
		hook(job)
	}

	o.Rearm()
}

func formatFireText(job *Job) string {
	if job.Payload.Text != "" {
		return job.Payload.Text
	}
	return "Scheduled job fired: " + job.Label
}

// Stop cancels any outstanding timer. Safe to call multiple times.
func (o *Owner) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
