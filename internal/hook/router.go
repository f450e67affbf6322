package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kolapsis/courier/internal/activity"
	"github.com/kolapsis/courier/internal/config"
	"github.com/kolapsis/courier/internal/journal"
	"github.com/kolapsis/courier/internal/notify"
)

// DefaultTitle labels notifications that arrive without one.
const DefaultTitle = "Claude Code"

// Scheduler hands a notification to the delayed-dispatch mechanism.
// Defined consumer-side; satisfied by dispatch.Dispatcher.
type Scheduler interface {
	Schedule(channel, title, message, sessionID string, delay time.Duration) error
}

// Recorder logs delivery attempts. Satisfied by journal.Journal; nil
// disables recording.
type Recorder interface {
	Record(d *journal.Delivery) error
}

// Router is the top-level entry point: it classifies incoming hook
// events and either records activity or fans the notification out to
// the enabled channels.
type Router struct {
	cfg       *config.Config
	store     *activity.Store
	registry  *notify.Registry
	scheduler Scheduler
	recorder  Recorder
	now       func() time.Time
}

// NewRouter wires a Router. recorder may be nil.
func NewRouter(cfg *config.Config, store *activity.Store, registry *notify.Registry, scheduler Scheduler, recorder Recorder) *Router {
	return &Router{
		cfg:       cfg,
		store:     store,
		registry:  registry,
		scheduler: scheduler,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Route handles one raw hook payload. The returned error is non-nil
// only for unparsable input; every other condition degrades to a
// logged no-op so the hook runner sees a clean exit.
func (r *Router) Route(ctx context.Context, raw []byte) error {
	event, err := Parse(raw)
	if err != nil {
		return err
	}

	switch event.Classify() {
	case KindActivity:
		return r.touch(event)
	case KindNotification:
		title := event.Title
		if title == "" {
			title = DefaultTitle
		}
		r.Notify(ctx, title, event.Message, event.SessionID)
		return nil
	default:
		slog.Debug("ignoring unrecognized hook payload")
		return nil
	}
}

func (r *Router) touch(event *Event) error {
	sessionID := event.SessionID
	if sessionID == "" {
		sessionID = PlaceholderSession
	}

	if err := r.store.Touch(sessionID, r.now()); err != nil {
		// Activity tracking is best-effort: a failed write only risks
		// one spurious delayed notification.
		slog.Warn("activity update failed", "session_id", sessionID, "error", err)
	}
	return nil
}

// Notify delivers the message through every enabled channel: delayed
// channels are scheduled, the rest deliver synchronously. Individual
// channel failures never abort the remaining channels. This is also
// the dispatch path for the HTTP and MCP surfaces.
func (r *Router) Notify(ctx context.Context, title, message, sessionID string) {
	if message == "" {
		return
	}

	for _, channel := range r.cfg.EnabledTiers {
		if r.cfg.Delayed(channel) {
			if err := r.scheduler.Schedule(channel, title, message, sessionID, r.cfg.Delay()); err != nil {
				slog.Warn("scheduling delayed notification failed", "channel", channel, "error", err)
			} else {
				slog.Info("delayed notification scheduled",
					"channel", channel,
					"delay", r.cfg.Delay(),
					"session_id", sessionID)
			}
			continue
		}

		r.deliverNow(ctx, channel, title, message, sessionID)
	}
}

func (r *Router) deliverNow(ctx context.Context, channel, title, message, sessionID string) {
	entry := &journal.Delivery{
		ID:        uuid.NewString(),
		Channel:   channel,
		Mode:      journal.ModeImmediate,
		Title:     title,
		Message:   message,
		SessionID: sessionID,
		CreatedAt: r.now(),
	}

	n := r.registry.Get(channel)
	switch {
	case n == nil:
		entry.Error = "unknown channel"
		slog.Warn("enabled channel has no implementation", "channel", channel)
	case !n.Available():
		entry.Error = "channel unavailable"
		slog.Warn("channel unavailable", "channel", channel)
	default:
		if err := n.Deliver(ctx, title, message); err != nil {
			entry.Error = err.Error()
			slog.Warn("delivery failed", "channel", channel, "error", err)
		} else {
			entry.Delivered = true
			slog.Info("notification delivered", "channel", channel, "title", title)
		}
	}

	if r.recorder != nil {
		if err := r.recorder.Record(entry); err != nil {
			slog.Debug("journal record failed", "error", err)
		}
	}
}
