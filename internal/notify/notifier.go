package notify

import (
	"context"

	"github.com/kolapsis/courier/internal/config"
)

// Notifier delivers a single notification through one channel.
type Notifier interface {
	// Name is the channel id used in enabled_tiers / delayed_tiers.
	Name() string

	// Available reports whether the channel can plausibly deliver on
	// this host (binary present, endpoint configured). It never
	// performs network probes.
	Available() bool

	// Deliver attempts exactly one delivery. A nil error means the
	// notification was handed to the underlying mechanism.
	Deliver(ctx context.Context, title, message string) error
}

// Registry maps channel ids to implementations. The router and the
// delayed-dispatch runner depend only on this lookup, so new delivery
// mechanisms register here without touching either.
type Registry struct {
	notifiers map[string]Notifier
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

// Register adds or replaces a channel implementation.
func (r *Registry) Register(n Notifier) {
	r.notifiers[n.Name()] = n
}

// Get returns the implementation for the given channel id, or nil.
func (r *Registry) Get(name string) Notifier {
	return r.notifiers[name]
}

// Build constructs a Registry with the built-in channels configured
// from tier_configs.
func Build(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.Register(NewDesktop(cfg.Tier(config.ChannelDesktop)))
	r.Register(NewNtfy(cfg.Tier(config.ChannelNtfy)))
	return r
}
