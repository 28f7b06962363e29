package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	godaemon "github.com/sevlyar/go-daemon"

	"github.com/padaemon/padaemon/internal/agent"
	"github.com/padaemon/padaemon/internal/config"
	"github.com/padaemon/padaemon/internal/daemon"
	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/session"
	"github.com/padaemon/padaemon/internal/terminal"
)

// version is set via ldflags at release build time.
var version = "dev"

// CLI is the top-level command surface.
type CLI struct {
	Debug  bool   `help:"Enable debug logging." short:"d"`
	Config string `help:"Config directory (holds config.json)." short:"c" type:"path"`

	Init     InitCmd     `cmd:"" help:"Write a starter config file."`
	Terminal TerminalCmd `cmd:"" help:"Run an interactive local REPL against the agent."`
	Daemon   DaemonCmd   `cmd:"" help:"Run the gateway, cron, and heartbeat loops."`
	Version  VersionCmd  `cmd:"" help:"Show version."`
}

// RunContext is threaded into every command.
type RunContext struct {
	ConfigPath string
}

func configPath(cli CLI) string {
	dir := cli.Config
	if dir == "" {
		dir = os.Getenv("PA_CONFIG")
	}
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".padaemon")
	}
	return filepath.Join(dir, "config.json")
}

// InitCmd writes the default config to disk if nothing exists there yet.
type InitCmd struct{}

func (c *InitCmd) Run(rc *RunContext) error {
	if _, err := os.Stat(rc.ConfigPath); err == nil {
		return fmt.Errorf("config already exists at %s", rc.ConfigPath)
	}
	cfg := config.Defaults()
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(rc.ConfigPath), 0o700); err != nil {
		return err
	}
	data := []byte("{\n  \"workspace\": \"" + cfg.Workspace + "\",\n  \"dataDir\": \"" + cfg.DataDir + "\"\n}\n")
	if err := os.WriteFile(rc.ConfigPath, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote starter config to %s\n", rc.ConfigPath)
	return nil
}

// TerminalCmd runs the local REPL front door.
type TerminalCmd struct{}

func (c *TerminalCmd) Run(rc *RunContext) error {
	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		return err
	}
	opts := agent.Options{Model: cfg.Agent.Model, MaxTurns: cfg.Agent.MaxTurns}
	return terminal.Run(context.Background(), os.Stdin, os.Stdout, unimplementedTurn, opts)
}

// DaemonCmd runs the full service, optionally detached into the
// background via go-daemon.
type DaemonCmd struct {
	Background bool `help:"Detach into the background." short:"b"`
}

func (c *DaemonCmd) Run(rc *RunContext) error {
	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	if c.Background {
		return runDetached(cfg)
	}
	return runForeground(cfg)
}

func runDetached(cfg *config.Config) error {
	pidFile := filepath.Join(cfg.DataDir, "padaemon.pid")
	logFile := filepath.Join(cfg.DataDir, "padaemon.log")

	cntxt := &godaemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0o644,
		LogFileName: logFile,
		LogFilePerm: 0o640,
		WorkDir:     "./",
		Umask:       0o027,
	}

	child, err := cntxt.Reborn()
	if err != nil {
		return fmt.Errorf("daemonize: %w", err)
	}
	if child != nil {
		fmt.Printf("padaemon started, pid %d\n", child.Pid)
		return nil
	}
	defer cntxt.Release() //nolint:errcheck

	return runForeground(cfg)
}

func runForeground(cfg *config.Config) error {
	d, err := daemon.New(cfg, unimplementedTurn)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info("daemon: received signal", "signal", sig.String())
		signal.Stop(sigCh)
		cancel()
	}()

	return d.Run(ctx)
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(rc *RunContext) error {
	fmt.Println(version)
	return nil
}

// unimplementedTurn stands in for the external agent invocation: this
// system is the substrate, not the agent. A real deployment wires this
// to the provider of its choice before running daemon or terminal.
func unimplementedTurn(ctx context.Context, text, sessionKey string, opts agent.Options) ([]session.Message, error) {
	return nil, fmt.Errorf("no agent backend configured")
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("padaemon"),
		kong.Description("Personal assistant gateway, scheduler, and execution substrate."),
		kong.UsageOnError(),
	)

	level := logging.LevelInfo
	if cli.Debug {
		level = logging.LevelDebug
	}
	logging.Init(&logging.Config{Level: level, ShowCaller: true})

	rc := &RunContext{ConfigPath: configPath(cli)}
	if err := kctx.Run(rc); err != nil {
		logging.Fatal("command failed", "error", err)
	}
}
