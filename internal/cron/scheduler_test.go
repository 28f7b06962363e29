package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}

func TestNextRunAtDisabledIsNil(t *testing.T) {
	job := &Job{Enabled: false, Schedule: Schedule{Type: ScheduleCron, Expression: "* * * * *"}}
	next, err := NextRunAt(job, time.Now())
	require.NoError(t, err)
	require.Nil(t, next)
}

func TestNextRunAtCron(t *testing.T) {
	now := mustParseTime(t, "2026-08-01T10:00:00Z")
	job := &Job{Enabled: true, Schedule: Schedule{Type: ScheduleCron, Expression: "30 10 * * *"}}
	next, err := NextRunAt(job, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, mustParseTime(t, "2026-08-01T10:30:00Z"), *next)
}

func TestNextRunAtCronInvalidExpressionIsNil(t *testing.T) {
	job := &Job{Enabled: true, Schedule: Schedule{Type: ScheduleCron, Expression: "not a cron expr"}}
	next, err := NextRunAt(job, time.Now())
	require.NoError(t, err)
	require.Nil(t, next)
}

func TestNextRunAtOneShotFutureIsKept(t *testing.T) {
	now := mustParseTime(t, "2026-08-01T10:00:00Z")
	future := "2026-08-01T11:00:00Z"
	job := &Job{Enabled: true, Schedule: Schedule{Type: ScheduleOneShot, ISO: future}}
	next, err := NextRunAt(job, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, mustParseTime(t, future), *next)
}

func TestNextRunAtOneShotPastIsNil(t *testing.T) {
	now := mustParseTime(t, "2026-08-01T10:00:00Z")
	job := &Job{Enabled: true, Schedule: Schedule{Type: ScheduleOneShot, ISO: "2026-07-01T00:00:00Z"}}
	next, err := NextRunAt(job, now)
	require.NoError(t, err)
	require.Nil(t, next)
}

func TestNextRunAtIntervalFromCreatedAt(t *testing.T) {
	created := mustParseTime(t, "2026-08-01T10:00:00Z")
	job := &Job{Enabled: true, CreatedAt: created, Schedule: Schedule{Type: ScheduleInterval, EveryMs: 60_000}}
	next, err := NextRunAt(job, created)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, created.Add(time.Minute), *next)
}

func TestNextRunAtIntervalFromLastFiredAt(t *testing.T) {
	created := mustParseTime(t, "2026-08-01T10:00:00Z")
	lastFired := mustParseTime(t, "2026-08-01T10:05:00Z")
	job := &Job{Enabled: true, CreatedAt: created, LastFiredAt: &lastFired, Schedule: Schedule{Type: ScheduleInterval, EveryMs: 60_000}}
	next, err := NextRunAt(job, created)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, lastFired.Add(time.Minute), *next)
}

func TestEarliestPicksSmallestDeadline(t *testing.T) {
	now := mustParseTime(t, "2026-08-01T10:00:00Z")
	far := &Job{ID: "far", Enabled: true, Schedule: Schedule{Type: ScheduleOneShot, ISO: "2026-08-01T12:00:00Z"}}
	near := &Job{ID: "near", Enabled: true, Schedule: Schedule{Type: ScheduleOneShot, ISO: "2026-08-01T10:30:00Z"}}
	disabled := &Job{ID: "off", Enabled: false, Schedule: Schedule{Type: ScheduleOneShot, ISO: "2026-08-01T10:01:00Z"}}

	best := Earliest([]*Job{far, near, disabled}, now)
	require.NotNil(t, best)
	require.Equal(t, "near", best.job.ID)
}

func TestEarliestNoneDueReturnsNil(t *testing.T) {
	now := mustParseTime(t, "2026-08-01T10:00:00Z")
	job := &Job{ID: "gone", Enabled: true, Schedule: Schedule{Type: ScheduleOneShot, ISO: "2020-01-01T00:00:00Z"}}
	require.Nil(t, Earliest([]*Job{job}, now))
}

func TestClampDelayBoundsToMax(t *testing.T) {
	require.Equal(t, maxTimerDelay, clampDelay(maxTimerDelay+time.Hour))
	require.Equal(t, time.Duration(0), clampDelay(-time.Second))
	require.Equal(t, time.Minute, clampDelay(time.Minute))
}
