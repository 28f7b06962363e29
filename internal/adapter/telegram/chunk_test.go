package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortTextIsSingleChunk(t *testing.T) {
	chunks := splitMessage("hello", 4000)
	require.Equal(t, []string{"hello"}, chunks)
}

func TestSplitMessageBreaksAtParagraph(t *testing.T) {
	text := strings.Repeat("a", 10) + "\n\n" + strings.Repeat("b", 10)
	chunks := splitMessage(text, 15)
	require.Len(t, chunks, 2)
	require.True(t, strings.HasPrefix(chunks[0], "aaaaaaaaaa"))
	require.True(t, strings.HasPrefix(chunks[1], "bbbbbbbbbb"))
}

func TestSplitMessageHardSplitWhenNoBoundary(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := splitMessage(text, 30)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 30)
	}
	require.Equal(t, text, strings.Join(chunks, ""))
}

func TestConfigAllowedEmptyListAllowsAll(t *testing.T) {
	cfg := Config{}
	require.True(t, cfg.allowed(12345))
}

func TestConfigAllowedMatchesListedID(t *testing.T) {
	cfg := Config{AllowedUserIDs: []int64{1, 2, 3}}
	require.True(t, cfg.allowed(2))
	require.False(t, cfg.allowed(4))
}
