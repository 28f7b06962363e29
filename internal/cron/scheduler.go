package cron

import (
	"math"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// maxTimerDelay caps a single armed delay at 2^31-1 ms (about 24.8 days);
// a deadline further out is reached by re-arming when the cap expires.
const maxTimerDelay = math.MaxInt32 * time.Millisecond

var cronParser = cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow)

// NextRunAt computes the next fire instant for job given now, per spec
// §4.5. A disabled job, a one-shot whose instant has passed, or a cron
// expression that fails to parse all yield (nil, nil) — these are not
// scheduler errors, just "no next run".
func NextRunAt(job *Job, now time.Time) (*time.Time, error) {
	if !job.Enabled {
		return nil, nil
	}
	switch job.Schedule.Type {
	case ScheduleCron:
		return nextRunCron(job.Schedule.Expression, now)
	case ScheduleOneShot:
		return nextRunOneShot(job.Schedule.ISO, now)
	case ScheduleInterval:
		return nextRunInterval(job, now)
	default:
		return nil, nil
	}
}

func nextRunCron(expr string, now time.Time) (*time.Time, error) {
	if expr == "" {
		return nil, nil
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, nil //nolint:nilerr // invalid expressions are a silent skip, not an error
	}
	next := schedule.Next(now.UTC())
	return &next, nil
}

func nextRunOneShot(iso string, now time.Time) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return nil, nil //nolint:nilerr // malformed iso is treated as "no next run"
	}
	if !t.After(now) {
		return nil, nil
	}
	return &t, nil
}

func nextRunInterval(job *Job, now time.Time) (*time.Time, error) {
	if job.Schedule.EveryMs <= 0 {
		return nil, nil
	}
	base := job.CreatedAt
	if job.LastFiredAt != nil {
		base = *job.LastFiredAt
	}
	next := base.Add(time.Duration(job.Schedule.EveryMs) * time.Millisecond)
	return &next, nil
}

// dueJob pairs a job with its computed next-fire time, for picking the
// single earliest deadline across the store.
type dueJob struct {
	job  *Job
	next time.Time
}

// Earliest returns the job with the smallest non-nil NextRunAt across
// jobs, or nil if none have one.
func Earliest(jobs []*Job, now time.Time) *dueJob {
	var best *dueJob
	for _, j := range jobs {
		next, err := NextRunAt(j, now)
		if err != nil || next == nil {
			continue
		}
		if best == nil || next.Before(best.next) {
			best = &dueJob{job: j, next: *next}
		}
	}
	return best
}

// clampDelay bounds d to the range [0, maxTimerDelay]. The
// caller must re-arm once the clamp expires if the deadline is still in
// the future.
func clampDelay(d time.Duration) time.Duration {
	if d > maxTimerDelay {
		return maxTimerDelay
	}
	if d < 0 {
		return 0
	}
	return d
}
