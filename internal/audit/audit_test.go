package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogCommandWritesJSONLine(t *testing.T) {
	ws := t.TempDir()
	l := New(ws)
	l.LogCommand("ls -la", true, "")

	dir := filepath.Join(ws, "daily")
	today := time.Now().UTC().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, today+".jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), "ls -la")
}

func TestLogCommandIncludesReasonOnDenial(t *testing.T) {
	ws := t.TempDir()
	l := New(ws)
	l.LogCommand("rm -rf /", false, "blocked")

	dir := filepath.Join(ws, "daily")
	today := time.Now().UTC().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, today+".jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), "rm -rf /")
	require.Contains(t, string(data), "blocked")
}
