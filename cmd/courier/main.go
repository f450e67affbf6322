package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/courier/internal/activity"
	"github.com/kolapsis/courier/internal/config"
	"github.com/kolapsis/courier/internal/dispatch"
	"github.com/kolapsis/courier/internal/hook"
	"github.com/kolapsis/courier/internal/journal"
	couriermcp "github.com/kolapsis/courier/internal/mcp"
	"github.com/kolapsis/courier/internal/mcp/handlers"
	"github.com/kolapsis/courier/internal/notify"
	"github.com/kolapsis/courier/internal/server"
)

var version = "dev"

// maxHookInput caps stdin reads. Hook payloads are small JSON objects;
// 1 MB is generous headroom.
const maxHookInput = 1 << 20

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "hook":
		cmdHook(os.Args[2:])
	case "fire":
		cmdFire(os.Args[2:])
	case "send":
		cmdSend(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "version":
		fmt.Printf("courier %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: courier <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  hook      Route one hook event from stdin\n")
	fmt.Fprintf(os.Stderr, "  send      Send a notification from the command line\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the local HTTP ingestion endpoint\n")
	fmt.Fprintf(os.Stderr, "  mcp       Serve notification tools over MCP (stdio)\n")
	fmt.Fprintf(os.Stderr, "  check     Validate configuration\n")
	fmt.Fprintf(os.Stderr, "  version   Print version\n")
}

// cmdHook reads one hook event JSON object from stdin and routes it.
// Exit code 0 covers routed, ignored and best-effort-failed events;
// only unparsable input exits non-zero.
func cmdHook(args []string) {
	fs := flag.NewFlagSet("hook", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	raw, err := io.ReadAll(io.LimitReader(os.Stdin, maxHookInput))
	if err != nil {
		slog.Error("reading stdin failed", "error", err)
		os.Exit(1)
	}

	router, cleanup := buildRouter(cfg, *configPath)
	defer cleanup()

	if err := router.Route(context.Background(), raw); err != nil {
		slog.Error("routing hook event failed", "error", err)
		os.Exit(1)
	}
}

// cmdFire is the detached delayed-dispatch runner. It is spawned by
// the scheduler, never by users.
func cmdFire(args []string) {
	fs := flag.NewFlagSet("fire", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	taskPath := fs.String("task", "", "path to the task handoff file")
	_ = fs.Parse(args) // ExitOnError handles errors

	if *taskPath == "" {
		fmt.Fprintln(os.Stderr, "fire: -task is required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	jrnl := openJournal(cfg)
	defer closeJournal(jrnl)

	runner := &dispatch.Runner{
		Store:    activity.New(cfg.Activity.Path, cfg.Activity.Retention),
		Registry: notify.Build(cfg),
	}
	if jrnl != nil {
		runner.Recorder = jrnl
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := runner.Run(ctx, *taskPath); err != nil {
		slog.Error("delayed dispatch failed", "error", err)
		os.Exit(1)
	}
}

func cmdSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	title := fs.String("title", hook.DefaultTitle, "notification title")
	message := fs.String("message", "", "notification message (required)")
	sessionID := fs.String("session", "", "session id for delayed-delivery cancellation")
	channel := fs.String("channel", "", "restrict delivery to a single channel")
	_ = fs.Parse(args) // ExitOnError handles errors

	if *message == "" {
		fmt.Fprintln(os.Stderr, "send: -message is required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	if *channel != "" {
		cfg.EnabledTiers = []string{*channel}
	}

	router, cleanup := buildRouter(cfg, *configPath)
	defer cleanup()

	router.Notify(context.Background(), *title, *message, *sessionID)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	router, cleanup := buildRouter(cfg, *configPath)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("courier is ready", "addr", addr, "version", version)

	if err := server.Serve(ctx, addr, server.New(router)); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	router, jrnl, cleanup := buildRouterJournal(cfg, *configPath)
	defer cleanup()

	deps := &couriermcp.Deps{
		Dispatcher: router,
		Version:    version,
	}
	if jrnl != nil {
		deps.Journal = jrnl
	}

	s := couriermcp.NewServer(deps)
	if err := mcpserver.ServeStdio(s); err != nil {
		slog.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	var cfg *config.Config
	if *configPath != "" {
		c, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		cfg = c
	} else {
		cfg = config.Load()
	}

	fmt.Println("configuration is valid")
	fmt.Printf("  enabled channels: %v\n", cfg.EnabledTiers)
	fmt.Printf("  delayed channels: %v\n", cfg.DelayedTiers)
	fmt.Printf("  delay: %s\n", cfg.Delay())
	fmt.Printf("  activity store: %s\n", cfg.Activity.Path)
	if cfg.Journal.Enabled {
		fmt.Printf("  journal: %s (retention %d days)\n", cfg.Journal.Path, cfg.Journal.RetentionDays)
	}
}

func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			slog.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		return cfg
	}
	return config.Load()
}

// setupLogging sends logs to stderr — stdout belongs to the hook
// runner and the MCP transport — or as JSON to a configured file.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if cfg.LogFile != "" {
		f, err := os.OpenFile(config.ExpandHome(cfg.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			slog.Warn("failed to open log file, using stderr", "path", cfg.LogFile, "error", err)
		} else {
			handler = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
		}
	}

	slog.SetDefault(slog.New(handler))
}

// buildRouter wires the shared dispatch dependencies. configPath is
// the explicit -config flag value, forwarded to delayed-dispatch
// children so they resolve the same configuration as the caller. The
// returned cleanup closes the journal when one is open.
func buildRouter(cfg *config.Config, configPath string) (*hook.Router, func()) {
	router, _, cleanup := buildRouterJournal(cfg, configPath)
	return router, cleanup
}

func buildRouterJournal(cfg *config.Config, configPath string) (*hook.Router, *journal.Journal, func()) {
	store := activity.New(cfg.Activity.Path, cfg.Activity.Retention)
	registry := notify.Build(cfg)

	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	dispatcher := dispatch.New(execPath, configPath, stateDir())

	jrnl := openJournal(cfg)

	var recorder hook.Recorder
	if jrnl != nil {
		recorder = jrnl
	}

	router := hook.NewRouter(cfg, store, registry, dispatcher, recorder)
	return router, jrnl, func() { closeJournal(jrnl) }
}

// stateDir holds the delayed-dispatch handoff files.
func stateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "courier")
	}
	return filepath.Join(os.TempDir(), "courier")
}

// openJournal opens the delivery journal when enabled. Failures are
// logged and reported as nil: the journal is never allowed to block
// routing.
func openJournal(cfg *config.Config) *journal.Journal {
	if !cfg.Journal.Enabled {
		return nil
	}
	jrnl, err := journal.Open(cfg.Journal.Path, cfg.Journal.RetentionDays)
	if err != nil {
		slog.Warn("delivery journal unavailable", "path", cfg.Journal.Path, "error", err)
		return nil
	}
	if err := jrnl.Cleanup(); err != nil {
		slog.Debug("journal cleanup failed", "error", err)
	}
	return jrnl
}

func closeJournal(jrnl *journal.Journal) {
	if jrnl != nil {
		_ = jrnl.Close()
	}
}

// compile-time checks that the router satisfies the tool surfaces.
var (
	_ server.Dispatcher   = (*hook.Router)(nil)
	_ handlers.Dispatcher = (*hook.Router)(nil)
)
