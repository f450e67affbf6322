package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_SetsExpectedValues(t *testing.T) {
	t.Parallel()

	cfg := Defaults()

	assert.Equal(t, []string{"desktop", "ntfy"}, cfg.EnabledTiers)
	assert.Equal(t, []string{"ntfy"}, cfg.DelayedTiers)
	assert.Equal(t, 30, cfg.DelaySeconds)
	assert.Equal(t, 30*time.Second, cfg.Delay())
	assert.Equal(t, 7*24*time.Hour, cfg.Activity.Retention)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile_ParsesYAML(t *testing.T) {
	t.Parallel()

	content := `
enabled_tiers: [desktop]
delayed_tiers: []
delay_seconds: 5

tier_configs:
  desktop:
    notifier: "/usr/local/bin/terminal-notifier"

activity:
  path: "/tmp/courier-test/activity.json"
  retention: 24h

journal:
  enabled: true
  path: "/tmp/courier-test/journal.db"
  retention_days: 7
`
	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"desktop"}, cfg.EnabledTiers)
	assert.Empty(t, cfg.DelayedTiers)
	assert.Equal(t, 5*time.Second, cfg.Delay())
	assert.Equal(t, "/usr/local/bin/terminal-notifier", cfg.Tier("desktop")["notifier"])
	assert.Equal(t, "/tmp/courier-test/activity.json", cfg.Activity.Path)
	assert.Equal(t, 24*time.Hour, cfg.Activity.Retention)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, 7, cfg.Journal.RetentionDays)
}

// The legacy config file is JSON; YAML being a superset of JSON, the
// same file must keep loading.
func TestLoadFromFile_ParsesLegacyJSON(t *testing.T) {
	t.Parallel()

	content := `{
  "enabled_tiers": ["desktop", "ntfy"],
  "delayed_tiers": ["ntfy"],
  "delay_seconds": 60,
  "tier_configs": {
    "ntfy": {"server": "https://ntfy.example.com", "topic": "alerts"}
  }
}`
	tmpFile := filepath.Join(t.TempDir(), "notification_config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"desktop", "ntfy"}, cfg.EnabledTiers)
	assert.Equal(t, 60, cfg.DelaySeconds)
	assert.Equal(t, "https://ntfy.example.com", cfg.Tier("ntfy")["server"])
	assert.Equal(t, "alerts", cfg.Tier("ntfy")["topic"])
}

func TestLoadFromFile_PartialOverride_KeepsDefaults(t *testing.T) {
	t.Parallel()

	content := `
delay_seconds: 10
`
	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DelaySeconds)
	assert.Equal(t, []string{"desktop", "ntfy"}, cfg.EnabledTiers, "default channels should be preserved")
	assert.Equal(t, []string{"ntfy"}, cfg.DelayedTiers, "default delayed set should be preserved")
}

func TestLoadFromFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("COURIER_TEST_TOPIC", "secret-topic")

	content := `
tier_configs:
  ntfy:
    topic: "${COURIER_TEST_TOPIC}"
`
	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "secret-topic", cfg.Tier("ntfy")["topic"])
}

func TestLoadFromFile_RejectsNegativeDelay(t *testing.T) {
	t.Parallel()

	content := `
delay_seconds: -1
`
	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	_, err := LoadFromFile(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay_seconds")
}

func TestLoadFromFile_InvalidSyntax_ReturnsError(t *testing.T) {
	t.Parallel()

	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("{{not valid:::"), 0644))

	_, err := LoadFromFile(tmpFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadFromFile_NonexistentFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile("/tmp/courier-nonexistent-config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.DelaySeconds)
	assert.Equal(t, []string{"desktop", "ntfy"}, cfg.EnabledTiers)
}

func TestEnvOverrides_TakePriorityOverFile(t *testing.T) {
	t.Setenv("COURIER_DELAY_SECONDS", "90")
	t.Setenv("COURIER_NTFY_TOPIC", "env-topic")
	t.Setenv("COURIER_NTFY_TOKEN", "tk_test")

	content := `
delay_seconds: 10
tier_configs:
  ntfy:
    topic: "file-topic"
`
	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.DelaySeconds)
	assert.Equal(t, "env-topic", cfg.Tier("ntfy")["topic"])
	assert.Equal(t, "tk_test", cfg.Tier("ntfy")["token"])
}

func TestLoad_InvalidFile_FallsBackToDefaultsWithExpandedPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	bad := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("delay_seconds: -5\n"), 0644))
	t.Setenv("COURIER_CONFIG", bad)

	cfg := Load()

	assert.Equal(t, 30, cfg.DelaySeconds, "invalid file must fall back to defaults")
	assert.Equal(t, filepath.Join(home, ".claude", "session_activity.json"), cfg.Activity.Path,
		"fallback defaults must still get home expansion")
	assert.Equal(t, filepath.Join(home, ".config", "courier", "journal.db"), cfg.Journal.Path)
}

func TestLoadFromFile_ExpandsHomeInPaths(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	content := `
activity:
  path: "~/custom/activity.json"
`
	tmpFile := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadFromFile(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "custom", "activity.json"), cfg.Activity.Path)
}

func TestDelayed_ChecksMembership(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.True(t, cfg.Delayed("ntfy"))
	assert.False(t, cfg.Delayed("desktop"))
	assert.False(t, cfg.Delayed("pager"))
}

func TestTier_UnknownChannelReturnsEmptyMap(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	tc := cfg.Tier("pager")
	require.NotNil(t, tc)
	assert.Empty(t, tc["anything"])
}

func TestExpandHome_ReplacesLeadingTilde(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "some/path"), ExpandHome("~/some/path"))
	assert.Equal(t, "/absolute/path", ExpandHome("/absolute/path"))
}
