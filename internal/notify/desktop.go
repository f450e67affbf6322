package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/kolapsis/courier/internal/config"
)

const (
	// defaultSender makes the notification display the Claude desktop
	// app icon instead of the generic terminal one.
	defaultSender = "com.anthropic.claudefordesktop"

	defaultNotifierBin = "terminal-notifier"
	fallbackBin        = "osascript"

	// desktopTimeout bounds each notifier invocation so a wedged
	// binary never hangs a delayed-dispatch runner. The primary and
	// the fallback each get their own window.
	desktopTimeout = 5 * time.Second
)

// Desktop shows a local notification by invoking an external notifier
// binary, falling back to osascript when the primary is missing or
// exits non-zero.
type Desktop struct {
	bin     string
	sender  string
	timeout time.Duration
}

// NewDesktop creates a Desktop channel from tier settings.
// Recognized keys: "notifier" (binary path), "sender".
func NewDesktop(tc config.TierConfig) *Desktop {
	d := &Desktop{
		bin:     defaultNotifierBin,
		sender:  defaultSender,
		timeout: desktopTimeout,
	}
	if v := tc["notifier"]; v != "" {
		d.bin = v
	}
	if v := tc["sender"]; v != "" {
		d.sender = v
	}
	return d
}

// Name implements Notifier.
func (d *Desktop) Name() string { return config.ChannelDesktop }

// Available reports whether either the notifier binary or the
// osascript fallback is on PATH.
func (d *Desktop) Available() bool {
	if _, err := exec.LookPath(d.bin); err == nil {
		return true
	}
	_, err := exec.LookPath(fallbackBin)
	return err == nil
}

// Deliver implements Notifier.
func (d *Desktop) Deliver(ctx context.Context, title, message string) error {
	primaryCtx, cancel := context.WithTimeout(ctx, d.timeout)
	cmd := exec.CommandContext(primaryCtx, d.bin,
		"-title", title,
		"-message", message,
		"-sender", d.sender,
	)
	primaryErr := cmd.Run()
	cancel()
	if primaryErr == nil {
		return nil
	}

	slog.Debug("primary desktop notifier failed, trying osascript",
		"notifier", d.bin,
		"error", primaryErr)

	// A fresh window: a wedged primary may have eaten the whole first
	// timeout, and the fallback still has to get its chance.
	fallbackCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	script := fmt.Sprintf("display notification %q with title %q", message, title)
	if err := exec.CommandContext(fallbackCtx, fallbackBin, "-e", script).Run(); err != nil {
		return fmt.Errorf("desktop notification failed (%s: %v): %w", d.bin, primaryErr, err)
	}

	return nil
}
