package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// searchPaths returns the ordered list of config file locations to try.
// The first entry is the legacy JSON config, which parses unchanged
// because YAML is a superset of JSON.
func searchPaths() []string {
	var paths []string

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".claude", "notification_config.json"),
			filepath.Join(home, ".config", "courier", "courier.yaml"),
		)
	}

	paths = append(paths, "courier.yaml")

	if envPath := os.Getenv("COURIER_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	return paths
}

// Load reads configuration from the search paths and environment.
// Files are loaded in order (each overrides the previous); a file that
// exists but does not parse is reported and skipped, never fatal — a
// hook handler with a broken config still has to route events.
func Load() *Config {
	cfg := Defaults()

	// Optional .env next to the working directory, then the user one.
	_ = godotenv.Load()
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".config", "courier", "courier.env"))
	}

	for _, path := range searchPaths() {
		if err := loadFile(cfg, path); err != nil {
			slog.Warn("ignoring unreadable config file", "path", path, "error", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		slog.Warn("invalid configuration, falling back to defaults", "error", err)
		cfg = Defaults()
		applyEnvOverrides(cfg)
	}

	// Home expansion runs on the fallback defaults as well; a literal
	// "~/..." path would otherwise create a cwd-relative directory.
	expandPaths(cfg)

	return cfg
}

// LoadFromFile reads configuration from a specific file path.
// Unlike Load, parse and validation errors are returned so the check
// subcommand can surface them.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	expandPaths(cfg)

	return cfg, nil
}

// envOverrides are COURIER_* environment overrides. They have higher
// priority than any config file.
type envOverrides struct {
	DelaySeconds *int   `envconfig:"DELAY_SECONDS"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
	LogFile      string `envconfig:"LOG_FILE"`
	ActivityPath string `envconfig:"ACTIVITY_PATH"`
	NtfyServer   string `envconfig:"NTFY_SERVER"`
	NtfyTopic    string `envconfig:"NTFY_TOPIC"`
	NtfyToken    string `envconfig:"NTFY_TOKEN"`
}

func applyEnvOverrides(cfg *Config) {
	var o envOverrides
	if err := envconfig.Process("courier", &o); err != nil {
		slog.Warn("ignoring malformed environment overrides", "error", err)
		return
	}

	if o.DelaySeconds != nil {
		cfg.DelaySeconds = *o.DelaySeconds
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.LogFile = o.LogFile
	}
	if o.ActivityPath != "" {
		cfg.Activity.Path = o.ActivityPath
	}

	ntfy := map[string]string{
		"server": o.NtfyServer,
		"topic":  o.NtfyTopic,
		"token":  o.NtfyToken,
	}
	for k, v := range ntfy {
		if v == "" {
			continue
		}
		if cfg.TierConfigs == nil {
			cfg.TierConfigs = map[string]TierConfig{}
		}
		if cfg.TierConfigs[ChannelNtfy] == nil {
			cfg.TierConfigs[ChannelNtfy] = TierConfig{}
		}
		cfg.TierConfigs[ChannelNtfy][k] = v
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config search paths
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	slog.Debug("loading config file", "path", path)

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg *Config) error {
	if cfg.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds must not be negative, got %d", cfg.DelaySeconds)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}

	return nil
}

func expandPaths(cfg *Config) {
	cfg.Activity.Path = ExpandHome(cfg.Activity.Path)
	cfg.Journal.Path = ExpandHome(cfg.Journal.Path)
}
