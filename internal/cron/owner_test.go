package cron

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/padaemon/padaemon/internal/sysevent"
	"github.com/stretchr/testify/require"
)

func newTestOwner(t *testing.T) (*Owner, *Store) {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "cron-jobs.json"))
	require.NoError(t, store.Load())
	events := sysevent.New()
	history := NewHistory(dir)
	return NewOwner(store, events, history), store
}

func TestOwnerFiresOneShotAndPublishesEvent(t *testing.T) {
	owner, store := newTestOwner(t)
	defer owner.Stop()

	var mu sync.Mutex
	var fired []string
	owner.OnJobFired(func(job *Job) {
		mu.Lock()
		fired = append(fired, job.ID)
		mu.Unlock()
	})

	job, err := store.Add("ping", Schedule{Type: ScheduleOneShot, ISO: nowUTC().Add(30 * time.Millisecond).Format(time.RFC3339Nano)}, Payload{Text: "ping"})
	require.NoError(t, err)
	owner.Rearm()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1 && fired[0] == job.ID
	}, time.Second, 5*time.Millisecond)

	got := store.Get(job.ID)
	require.NotNil(t, got)
	require.NotNil(t, got.LastFiredAt)
}

func TestOwnerRearmAfterRemoveCancelsTimer(t *testing.T) {
	owner, store := newTestOwner(t)
	defer owner.Stop()

	job, err := store.Add("later", Schedule{Type: ScheduleOneShot, ISO: nowUTC().Add(time.Hour).Format(time.RFC3339Nano)}, Payload{})
	require.NoError(t, err)
	owner.Rearm()

	require.NoError(t, store.Remove(job.ID))
	owner.Rearm()

	owner.mu.Lock()
	timer := owner.timer
	owner.mu.Unlock()
	require.Nil(t, timer)
}

func TestOwnerStopPreventsFurtherFires(t *testing.T) {
	owner, store := newTestOwner(t)

	_, err := store.Add("soon", Schedule{Type: ScheduleOneShot, ISO: nowUTC().Add(20 * time.Millisecond).Format(time.RFC3339Nano)}, Payload{})
	require.NoError(t, err)
	owner.Rearm()
	owner.Stop()

	time.Sleep(60 * time.Millisecond)
	jobs := store.All()
	require.Len(t, jobs, 1)
	require.Nil(t, jobs[0].LastFiredAt, "stopped owner must not fire the one-shot")
}
