package heartbeat

import (
	"fmt"
	"time"

	"github.com/padaemon/padaemon/internal/sysevent"
)

// DefaultPrompt is the standard heartbeat prompt, sent when there are no
// pending exec or cron events and Config.Prompt is empty.
const DefaultPrompt = "This is a periodic heartbeat check. Nothing is pending. If nothing needs attention, reply with exactly HEARTBEAT_OK."

// execPromptTemplate and cronPromptTemplate cite the single event text
// that won the priority pick; %s is that event's Text.
const (
	execPromptTemplate = "A background command you started has finished. Result: %s\n\nReview it and act if needed, otherwise reply with exactly HEARTBEAT_OK."
	cronPromptTemplate = "A scheduled reminder fired: %s\n\nAct on it if needed, otherwise reply with exactly HEARTBEAT_OK."
)

// firstOfType returns the first event of typ in events, in their
// original (FIFO) order, or nil if none.
func firstOfType(events []sysevent.Event, typ sysevent.Type) *sysevent.Event {
	for i := range events {
		if events[i].Type == typ {
			return &events[i]
		}
	}
	return nil
}

// BuildPrompt picks exactly one prompt for this heartbeat tick: the
// exec-completion prompt for the first pending exec event if any, else
// the reminder prompt for the first pending cron event if any, else the
// standard prompt stamped with now in ISO-8601. events have already been
// drained from the queue by the caller, so any event not picked here is
// discarded, not deferred.
func BuildPrompt(prompt string, events []sysevent.Event, now time.Time) string {
	if e := firstOfType(events, sysevent.TypeExec); e != nil {
		return fmt.Sprintf(execPromptTemplate, e.Text)
	}
	if e := firstOfType(events, sysevent.TypeCron); e != nil {
		return fmt.Sprintf(cronPromptTemplate, e.Text)
	}

	if prompt == "" {
		prompt = DefaultPrompt
	}
	return fmt.Sprintf("%s\n\nCurrent time: %s", prompt, now.UTC().Format(time.RFC3339))
}
