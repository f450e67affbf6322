package config

import "time"

// Channel identifiers known out of the box. The registry accepts any
// id, so a config may name channels this binary does not implement;
// those are logged and skipped at dispatch time.
const (
	ChannelDesktop = "desktop"
	ChannelNtfy    = "ntfy"
)

// TierConfig holds channel-specific settings as free-form string pairs.
type TierConfig map[string]string

// Config is the root configuration for courier.
//
// The top-level tier keys match the legacy
// ~/.claude/notification_config.json format, which is why they keep
// the "tier" naming while the code says "channel".
type Config struct {
	EnabledTiers []string              `yaml:"enabled_tiers"`
	DelayedTiers []string              `yaml:"delayed_tiers"`
	DelaySeconds int                   `yaml:"delay_seconds"`
	TierConfigs  map[string]TierConfig `yaml:"tier_configs"`

	Activity ActivityConfig `yaml:"activity"`
	Journal  JournalConfig  `yaml:"journal"`
	Server   ServerConfig   `yaml:"server"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// ActivityConfig controls the session activity store.
type ActivityConfig struct {
	Path string `yaml:"path"`
	// Retention prunes sessions idle longer than this during writes.
	// Zero disables pruning.
	Retention time.Duration `yaml:"retention"`
}

// JournalConfig controls the optional delivery journal.
type JournalConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// ServerConfig is used by the serve subcommand only.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Defaults returns a Config with sensible default values: desktop
// notifications immediately, ntfy after a 30 second idle window.
func Defaults() *Config {
	return &Config{
		EnabledTiers: []string{ChannelDesktop, ChannelNtfy},
		DelayedTiers: []string{ChannelNtfy},
		DelaySeconds: 30,
		TierConfigs:  map[string]TierConfig{},
		Activity: ActivityConfig{
			Path:      "~/.claude/session_activity.json",
			Retention: 7 * 24 * time.Hour,
		},
		Journal: JournalConfig{
			Enabled:       false,
			Path:          "~/.config/courier/journal.db",
			RetentionDays: 30,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8968,
		},
		LogLevel: "info",
	}
}

// Delay returns the configured delay as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds) * time.Second
}

// Delayed reports whether the given channel is configured for delayed
// delivery.
func (c *Config) Delayed(channel string) bool {
	for _, t := range c.DelayedTiers {
		if t == channel {
			return true
		}
	}
	return false
}

// Tier returns the channel-specific settings, never nil.
func (c *Config) Tier(channel string) TierConfig {
	if tc, ok := c.TierConfigs[channel]; ok && tc != nil {
		return tc
	}
	return TierConfig{}
}
