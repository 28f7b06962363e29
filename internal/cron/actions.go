package cron

import "fmt"

// AddAction creates a new job and re-arms the owner.
func (o *Owner) AddAction(label string, schedule Schedule, payload Payload) Result {
	job, err := o.store.Add(label, schedule, payload)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("cron add failed: %v", err)}
	}
	o.Rearm()
	return Result{Success: true, Message: fmt.Sprintf("job %s created", job.ID), Data: job}
}

// ListAction returns every job currently in the store.
func (o *Owner) ListAction() Result {
	jobs := o.store.All()
	return Result{Success: true, Message: fmt.Sprintf("%d jobs", len(jobs)), Data: jobs}
}

// UpdateAction patches an existing job and re-arms the owner, since the
// patch may change what's due next.
func (o *Owner) UpdateAction(id string, patch JobPatch) Result {
	job, err := o.store.Update(id, patch)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("cron update failed: %v", err)}
	}
	o.Rearm()
	return Result{Success: true, Message: fmt.Sprintf("job %s updated", job.ID), Data: job}
}

// RemoveAction deletes a job and re-arms the owner.
func (o *Owner) RemoveAction(id string) Result {
	if err := o.store.Remove(id); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("cron remove failed: %v", err)}
	}
	o.Rearm()
	return Result{Success: true, Message: fmt.Sprintf("job %s removed", id)}
}
