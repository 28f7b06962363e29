package heartbeat

import (
	"strings"
	"testing"
	"time"

	"github.com/padaemon/padaemon/internal/sysevent"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func TestBuildPromptNoEventsReturnsConfiguredPromptStampedWithTime(t *testing.T) {
	out := BuildPrompt("check things", nil, fixedNow)
	require.Contains(t, out, "check things")
	require.Contains(t, out, "2026-01-15T09:00:00Z")
}

func TestBuildPromptDefaultsWhenEmpty(t *testing.T) {
	out := BuildPrompt("", nil, fixedNow)
	require.Contains(t, out, DefaultPrompt)
	require.Contains(t, out, "2026-01-15T09:00:00Z")
}

func TestBuildPromptPicksFirstExecEventOnly(t *testing.T) {
	events := []sysevent.Event{
		{Type: sysevent.TypeCron, Text: "c1"},
		{Type: sysevent.TypeExec, Text: "e1"},
		{Type: sysevent.TypeCron, Text: "c2"},
	}
	out := BuildPrompt("p", events, fixedNow)

	require.Contains(t, out, "e1")
	require.NotContains(t, out, "c1")
	require.NotContains(t, out, "c2")
}

func TestBuildPromptFallsBackToFirstCronEventWhenNoExec(t *testing.T) {
	events := []sysevent.Event{
		{Type: sysevent.TypeSystem, Text: "s1"},
		{Type: sysevent.TypeCron, Text: "c1"},
		{Type: sysevent.TypeCron, Text: "c2"},
	}
	out := BuildPrompt("p", events, fixedNow)

	require.Contains(t, out, "c1")
	require.NotContains(t, out, "c2")
	require.NotContains(t, out, "s1")
}

func TestBuildPromptIgnoresSystemOnlyEventsAndUsesStandardPrompt(t *testing.T) {
	events := []sysevent.Event{
		{Type: sysevent.TypeSystem, Text: "s1"},
	}
	out := BuildPrompt("p", events, fixedNow)

	require.NotContains(t, out, "s1")
	require.True(t, strings.Contains(out, "p"))
}
