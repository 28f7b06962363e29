// Package heartbeat implements the periodic, active-hours-gated check-in:
// on each tick it drains the system-event queue, picks one prompt by event
// priority, and hands it to the gateway queue; the gateway suppresses
// delivery when the agent replies with the HEARTBEAT_OK sentinel.
package heartbeat

import (
	"fmt"
	"strconv"
	"strings"
)

// ActiveHours is a half-open [Start, End) window in local hours, 0-23,
// where Start 0 with End 24 means "all day". ParseActiveHours maps "" and
// "0-0" to that window; a literal {0, 0} matches no hour.
type ActiveHours struct {
	Start int
	End   int
}

// AllDay is the 0-24 active-hours window: always active.
var AllDay = ActiveHours{Start: 0, End: 24}

// ParseActiveHours parses "H1-H2" (zero-padded or bare, e.g. "08-22" or
// "8-22") into an ActiveHours window. "0-24" and the empty string both
// mean all day.
func ParseActiveHours(spec string) (ActiveHours, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return AllDay, nil
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return ActiveHours{}, fmt.Errorf("heartbeat: invalid active hours %q: expected H1-H2", spec)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ActiveHours{}, fmt.Errorf("heartbeat: invalid start hour %q: %w", parts[0], err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ActiveHours{}, fmt.Errorf("heartbeat: invalid end hour %q: %w", parts[1], err)
	}
	if start < 0 || start > 24 || end < 0 || end > 24 {
		return ActiveHours{}, fmt.Errorf("heartbeat: hours must be within 0-24, got %d-%d", start, end)
	}
	if start == 0 && end == 0 {
		return AllDay, nil
	}
	return ActiveHours{Start: start, End: end}, nil
}

// Contains reports whether hour (0-23) falls within the window. A window
// spanning midnight (Start > End) wraps around.
func (a ActiveHours) Contains(hour int) bool {
	if a.Start == 0 && a.End >= 24 {
		return true
	}
	if a.Start <= a.End {
		return hour >= a.Start && hour < a.End
	}
	return hour >= a.Start || hour < a.End
}
