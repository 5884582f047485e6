//go:build e2e
// +build e2e

package commands

import (
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/penwyp/go-team-monitor/internal/devserver"
	"github.com/penwyp/go-team-monitor/internal/testing/e2e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "team-monitor")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "../cmd/team-monitor")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build binary: %s", string(output))
	return binaryPath
}

func startTop(t *testing.T, extra ...string) *e2e.TUITestSession {
	t.Helper()
	srv := devserver.NewServer(devserver.Config{APIKey: "secret", Teams: []string{"demo"}}, devserver.NewMemoryStore())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	args := append([]string{
		"--base-url", ts.URL, "--api-key", "secret",
		"--config", filepath.Join(dir, "config.yaml"),
		"--log-file", filepath.Join(dir, "app.log"),
		"top", "demo", "--refresh-per-second", "5",
	}, extra...)

	session, err := e2e.NewTUITestSession(&e2e.TUITestConfig{
		Command: buildBinary(t),
		Args:    args,
		Timeout: 15 * time.Second,
		Rows:    30,
		Cols:    100,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.ForceStop() })
	return session
}

// TestTopCommandStartup checks the dashboard connects and shows the team
func TestTopCommandStartup(t *testing.T) {
	session := startTop(t)

	require.NoError(t, session.ExpectScreen("idle", 5*time.Second))
	assert.NoError(t, session.AssertNoText("Keyboard Shortcuts"), "help should not show on startup")
	assert.Contains(t, session.Screenshot(), "demo")

	assert.NoError(t, session.Stop(), "should shut down cleanly")
}

// TestTopCommandHelpToggle tests the help page toggle
func TestTopCommandHelpToggle(t *testing.T) {
	session := startTop(t)
	require.NoError(t, session.ExpectScreen("idle", 5*time.Second))

	require.NoError(t, session.SendKey('h'))
	require.NoError(t, session.ExpectScreen("Keyboard Shortcuts", 2*time.Second))

	require.NoError(t, session.SendKey('h'))
	require.Eventually(t, func() bool {
		return !strings.Contains(session.Screenshot(), "Keyboard Shortcuts")
	}, 2*time.Second, 50*time.Millisecond)

	assert.NoError(t, session.Stop())
}

// TestTopCommandSubmitEvent presses 'e' and waits for the response pane
func TestTopCommandSubmitEvent(t *testing.T) {
	session := startTop(t, "--event-type", "lead", "--event-payload", `{"name":"acme"}`)
	require.NoError(t, session.ExpectScreen("idle", 5*time.Second))

	require.NoError(t, session.SendKey('e'))
	require.NoError(t, session.ExpectScreen("HTTP 200", 5*time.Second))
	require.NoError(t, session.ExpectScreen("demo lead =>", 5*time.Second))

	assert.NoError(t, session.Stop())
}

// TestTopCommandQuitKey tests quitting with Esc
func TestTopCommandQuitKey(t *testing.T) {
	session := startTop(t)
	require.NoError(t, session.ExpectScreen("idle", 5*time.Second))

	require.NoError(t, session.SendKey(27))
	assert.NoError(t, session.WaitExit(3*time.Second))
	assert.False(t, session.IsRunning(), "session should stop after Esc")
}
