package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolapsis/courier/internal/config"
)

// writeStub drops an executable shell script into dir and returns its
// path. It records its arguments into argFile so the test can verify
// the invocation.
func writeStub(t *testing.T, dir, name, argFile string, exitCode int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n"
	if argFile != "" {
		script += "printf '%s\\n' \"$@\" > " + argFile + "\n"
	}
	script += "exit " + map[int]string{0: "0", 1: "1"}[exitCode] + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestDesktop_Deliver_InvokesNotifierWithSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	argFile := filepath.Join(dir, "args.txt")
	stub := writeStub(t, dir, "notifier", argFile, 0)

	d := NewDesktop(config.TierConfig{"notifier": stub})

	require.NoError(t, d.Deliver(context.Background(), "Test", "Hello!"))

	raw, err := os.ReadFile(argFile)
	require.NoError(t, err)
	args := string(raw)
	assert.Contains(t, args, "-title\nTest")
	assert.Contains(t, args, "-message\nHello!")
	assert.Contains(t, args, "-sender\n"+defaultSender)
}

func TestDesktop_Deliver_CustomSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	argFile := filepath.Join(dir, "args.txt")
	stub := writeStub(t, dir, "notifier", argFile, 0)

	d := NewDesktop(config.TierConfig{"notifier": stub, "sender": "com.example.app"})

	require.NoError(t, d.Deliver(context.Background(), "T", "M"))

	raw, err := os.ReadFile(argFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "com.example.app")
}

func TestDesktop_Deliver_MissingBinaryWithoutFallback_Fails(t *testing.T) {
	// Empty PATH so the osascript fallback cannot resolve either.
	t.Setenv("PATH", t.TempDir())

	d := NewDesktop(config.TierConfig{"notifier": "/nonexistent/notifier"})

	err := d.Deliver(context.Background(), "T", "M")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "desktop notification failed")
}

func TestDesktop_Deliver_NonZeroExitWithoutFallback_Fails(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "notifier", "", 1)
	t.Setenv("PATH", t.TempDir())

	d := NewDesktop(config.TierConfig{"notifier": stub})

	assert.Error(t, d.Deliver(context.Background(), "T", "M"))
}

func TestDesktop_Deliver_FallsBackToOsascript(t *testing.T) {
	// A failing primary plus a stub "osascript" on PATH must succeed.
	dir := t.TempDir()
	failing := writeStub(t, dir, "notifier", "", 1)

	pathDir := t.TempDir()
	argFile := filepath.Join(pathDir, "osa-args.txt")
	writeStub(t, pathDir, "osascript", argFile, 0)
	t.Setenv("PATH", pathDir)

	d := NewDesktop(config.TierConfig{"notifier": failing})

	require.NoError(t, d.Deliver(context.Background(), "Test", "Hello!"))

	raw, err := os.ReadFile(argFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "display notification")
	assert.Contains(t, string(raw), "Hello!")
}

func TestDesktop_Deliver_FallbackGetsItsOwnTimeout(t *testing.T) {
	// A primary that sleeps past the timeout must not leave the
	// osascript fallback with an already-expired deadline.
	dir := t.TempDir()
	slow := filepath.Join(dir, "notifier")
	require.NoError(t, os.WriteFile(slow, []byte("#!/bin/sh\nsleep 5\n"), 0o755))

	pathDir := t.TempDir()
	argFile := filepath.Join(pathDir, "osa-args.txt")
	writeStub(t, pathDir, "osascript", argFile, 0)
	t.Setenv("PATH", pathDir)

	d := NewDesktop(config.TierConfig{"notifier": slow})
	d.timeout = 100 * time.Millisecond

	require.NoError(t, d.Deliver(context.Background(), "Test", "Hello!"))

	raw, err := os.ReadFile(argFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "display notification")
}

func TestDesktop_Available(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "notifier", "", 0)
	t.Setenv("PATH", t.TempDir())

	present := NewDesktop(config.TierConfig{"notifier": stub})
	assert.True(t, present.Available())

	absent := NewDesktop(config.TierConfig{"notifier": "/nonexistent/notifier"})
	assert.False(t, absent.Available(), "no notifier and no osascript on PATH")
}
