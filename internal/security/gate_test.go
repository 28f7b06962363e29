package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) (Config, string) {
	t.Helper()
	ws := t.TempDir()
	cfg := Config{
		AllowedCommands: []string{"ls", "cat", "echo", "rm", "kill", "mkdir", "grep"},
		ExtraValidation: []string{"rm", "kill"},
		Workspace:       ws,
	}
	return cfg, ws
}

func TestClassifyAllowsAllowlistedCommand(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("ls -la", cfg)
	require.True(t, res.Allow, res.Reason)
}

func TestClassifyBlocksNonAllowlisted(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("curl http://example.com", cfg)
	require.False(t, res.Allow)
}

func TestClassifyBlocksSudoAnywhere(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("ls && sudo rm -rf /", cfg)
	require.False(t, res.Allow)
	require.Contains(t, res.Reason, "sudo")
}

func TestClassifyMultiSegmentOneBlockedBlocksAll(t *testing.T) {
	cfg, ws := testConfig(t)
	ok := filepath.Join(ws, "a.txt")
	require.NoError(t, os.WriteFile(ok, []byte("hi"), 0o600))
	res := Classify("cat "+ok+" ; curl evil.com", cfg)
	require.False(t, res.Allow)
}

func TestClassifyBlocksPathEscape(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("cat /etc/passwd", cfg)
	require.False(t, res.Allow)
	require.Contains(t, res.Reason, "/etc/passwd")
}

func TestClassifyAllowsWorkspacePath(t *testing.T) {
	cfg, ws := testConfig(t)
	p := filepath.Join(ws, "note.txt")
	require.NoError(t, os.WriteFile(p, []byte("hi"), 0o600))
	res := Classify("cat "+p, cfg)
	require.True(t, res.Allow, res.Reason)
}

func TestValidateRmBlocksRootDelete(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("rm -rf /", cfg)
	require.False(t, res.Allow)
}

func TestValidateKillRejectsLowPID(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("kill -9 1", cfg)
	require.False(t, res.Allow)
}

func TestValidateKillAllowsHighPID(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("kill -9 50000", cfg)
	require.True(t, res.Allow, res.Reason)
}

func TestValidateKillRejectsNonNumeric(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("kill -9 notapid", cfg)
	require.False(t, res.Allow)
}

func TestClassifySymlinkEscape(t *testing.T) {
	cfg, ws := testConfig(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("shh"), 0o600))
	link := filepath.Join(ws, "link.txt")
	require.NoError(t, os.Symlink(secret, link))

	res := Classify("cat "+link, cfg)
	require.False(t, res.Allow)
}

func TestClassifyEmptyCommand(t *testing.T) {
	cfg, _ := testConfig(t)
	res := Classify("", cfg)
	require.False(t, res.Allow)
}
