// Package dispatch implements delayed delivery. A schedule call hands
// a small task file to a detached re-exec of the courier binary; the
// child sleeps, re-checks the activity store and delivers only if the
// session stayed idle. The child must not be an in-process timer: the
// scheduling hook process exits immediately after the call.
package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Task is the state handed to the detached runner. Everything the
// runner needs travels through this file; it holds no reference to the
// parent process.
type Task struct {
	ID           string `json:"id"`
	Channel      string `json:"channel"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	DelaySeconds int    `json:"delay_seconds"`
	// ScheduledAt is the moment scheduling began, epoch seconds.
	// Activity recorded strictly after it cancels the delivery.
	ScheduledAt int64 `json:"scheduled_at"`
}

// Dispatcher spawns detached delayed-dispatch runners.
type Dispatcher struct {
	execPath   string
	configPath string
	stateDir   string
	now        func() time.Time
}

// New creates a Dispatcher. execPath is the courier binary to re-exec
// (normally os.Executable()). configPath, when non-empty, is forwarded
// to the child so both sides resolve the same configuration. stateDir
// receives the task handoff files.
func New(execPath, configPath, stateDir string) *Dispatcher {
	return &Dispatcher{
		execPath:   execPath,
		configPath: configPath,
		stateDir:   stateDir,
		now:        time.Now,
	}
}

// Schedule writes the task file and starts a detached `courier fire`
// child. No cancellation handle is returned: cancellation is implicit,
// driven by the activity-timestamp comparison at fire time. Multiple
// pending tasks for one session each self-cancel independently.
func (d *Dispatcher) Schedule(channel, title, message, sessionID string, delay time.Duration) error {
	task := Task{
		ID:           uuid.NewString(),
		Channel:      channel,
		Title:        title,
		Message:      message,
		SessionID:    sessionID,
		DelaySeconds: int(delay / time.Second),
		ScheduledAt:  d.now().Unix(),
	}

	path, err := d.writeTask(task)
	if err != nil {
		return err
	}

	cmdArgs := []string{"fire", "--task", path}
	if d.configPath != "" {
		cmdArgs = append(cmdArgs, "--config", d.configPath)
	}
	cmd := exec.Command(d.execPath, cmdArgs...)
	// Own session, no inherited stdio: the child must survive the
	// parent exiting right after this call.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("starting delayed dispatch: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("releasing delayed dispatch: %w", err)
	}

	return nil
}

func (d *Dispatcher) writeTask(task Task) (string, error) {
	if err := os.MkdirAll(d.stateDir, 0o700); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}

	f, err := os.CreateTemp(d.stateDir, "task-"+task.ID[:8]+"-*.json")
	if err != nil {
		return "", fmt.Errorf("creating task file: %w", err)
	}

	if err := json.NewEncoder(f).Encode(task); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("encoding task: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("closing task file: %w", err)
	}

	return f.Name(), nil
}

// ReadTask loads and deletes a task handoff file. The file is removed
// up front so a crashed runner never leaves a task that fires twice.
func ReadTask(path string) (*Task, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from our own spawn argument
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	_ = os.Remove(path)

	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("parsing task file: %w", err)
	}
	return &task, nil
}
