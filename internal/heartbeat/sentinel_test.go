package heartbeat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsOKMatchesExact(t *testing.T) {
	require.True(t, IsOK("HEARTBEAT_OK"))
}

func TestIsOKCaseInsensitiveAndWhitespaceTolerant(t *testing.T) {
	require.True(t, IsOK("  heartbeat_ok  \n"))
	require.True(t, IsOK("Heartbeat_Ok"))
}

func TestIsOKRejectsExtraText(t *testing.T) {
	require.False(t, IsOK("HEARTBEAT_OK but also something else"))
	require.False(t, IsOK("nothing to see here"))
	require.False(t, IsOK(""))
}
