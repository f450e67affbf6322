package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/kolapsis/courier/internal/activity"
	"github.com/kolapsis/courier/internal/journal"
	"github.com/kolapsis/courier/internal/notify"
)

// Recorder logs delivery attempts. Defined consumer-side; the journal
// satisfies it, and a nil Recorder disables recording.
type Recorder interface {
	Record(d *journal.Delivery) error
}

// Runner is the fire side of delayed dispatch: it waits out the delay,
// re-checks the activity store and delivers at most once.
type Runner struct {
	Store    *activity.Store
	Registry *notify.Registry
	Recorder Recorder
	Now      func() time.Time
}

// Run executes one delayed-dispatch task. Delivery failures are
// best-effort and never returned; only an unusable task file is an
// error.
func (r *Runner) Run(ctx context.Context, taskPath string) error {
	task, err := ReadTask(taskPath)
	if err != nil {
		return err
	}

	log := slog.With(
		"task_id", task.ID,
		"channel", task.Channel,
		"session_id", task.SessionID)

	if delay := time.Duration(task.DelaySeconds) * time.Second; delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			log.Debug("delayed dispatch interrupted during wait")
			return nil
		}
	}

	scheduledAt := time.Unix(task.ScheduledAt, 0)
	if last, ok := r.Store.LastActive(task.SessionID); ok && last.After(scheduledAt) {
		log.Debug("delayed dispatch superseded by session activity",
			"last_active", last,
			"scheduled_at", scheduledAt)
		return nil
	}

	r.deliver(ctx, task, log)
	return nil
}

func (r *Runner) deliver(ctx context.Context, task *Task, log *slog.Logger) {
	entry := &journal.Delivery{
		ID:        task.ID,
		Channel:   task.Channel,
		Mode:      journal.ModeDelayed,
		Title:     task.Title,
		Message:   task.Message,
		SessionID: task.SessionID,
		CreatedAt: r.now(),
	}

	n := r.Registry.Get(task.Channel)
	switch {
	case n == nil:
		entry.Error = "unknown channel"
		log.Warn("delayed dispatch for unknown channel")
	case !n.Available():
		entry.Error = "channel unavailable"
		log.Warn("delayed dispatch channel unavailable")
	default:
		if err := n.Deliver(ctx, task.Title, task.Message); err != nil {
			entry.Error = err.Error()
			log.Warn("delayed delivery failed", "error", err)
		} else {
			entry.Delivered = true
			log.Info("delayed notification delivered")
		}
	}

	if r.Recorder != nil {
		if err := r.Recorder.Record(entry); err != nil {
			log.Debug("journal record failed", "error", err)
		}
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
