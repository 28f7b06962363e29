package slack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigAllowedEmptyListAllowsAll(t *testing.T) {
	cfg := Config{}
	require.True(t, cfg.allowed("U123"))
}

func TestConfigAllowedMatchesListedUser(t *testing.T) {
	cfg := Config{AllowedUsers: []string{"U1", "U2"}}
	require.True(t, cfg.allowed("U2"))
	require.False(t, cfg.allowed("U3"))
}
