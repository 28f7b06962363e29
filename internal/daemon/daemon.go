// Package daemon wires every component (security, exec, process registry,
// system events, cron, heartbeat, gateway, adapters) into one supervised
// process and owns its start/stop ordering.
package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/padaemon/padaemon/internal/adapter"
	"github.com/padaemon/padaemon/internal/adapter/slack"
	"github.com/padaemon/padaemon/internal/adapter/telegram"
	"github.com/padaemon/padaemon/internal/agent"
	"github.com/padaemon/padaemon/internal/audit"
	"github.com/padaemon/padaemon/internal/config"
	"github.com/padaemon/padaemon/internal/cron"
	"github.com/padaemon/padaemon/internal/execsvc"
	"github.com/padaemon/padaemon/internal/gateway"
	"github.com/padaemon/padaemon/internal/heartbeat"
	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/processreg"
	"github.com/padaemon/padaemon/internal/session"
	"github.com/padaemon/padaemon/internal/sysevent"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds graceful shutdown: if the stop sequence hasn't
// finished by then, the process force-exits rather than hang on a stuck
// adapter or in-flight agent turn.
const shutdownTimeout = 10 * time.Second

// Daemon owns every long-lived component and their lifecycle order.
type Daemon struct {
	cfg *config.Config

	events    *sysevent.Queue
	registry  *processreg.Registry
	auditLog  *audit.Log
	exec      *execsvc.Executor
	cronStore *cron.Store
	cronOwner *cron.Owner
	history   *cron.History
	hb        *heartbeat.Scheduler
	router    *adapter.Router
	gw        *gateway.Gateway
	adapters  []adapter.Adapter
}

// New builds every component from cfg but starts nothing yet.
func New(cfg *config.Config, turn agent.Turn) (*Daemon, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg}

	d.events = sysevent.New()
	d.registry = processreg.New()
	d.auditLog = audit.New(cfg.Workspace)
	d.exec = execsvc.New(d.registry, d.events, d.auditLog)

	d.cronStore = cron.NewStore(filepath.Join(cfg.DataDir, "cron-jobs.json"))
	if err := d.cronStore.Load(); err != nil {
		return nil, fmt.Errorf("daemon: load cron store: %w", err)
	}
	d.history = cron.NewHistory(cfg.DataDir)
	d.cronOwner = cron.NewOwner(d.cronStore, d.events, d.history)
	if err := d.cronStore.Watch(d.cronOwner.Rearm); err != nil {
		logging.Warn("daemon: cron file watch disabled", "error", err)
	}

	d.router = adapter.NewRouter()
	store := session.NewStore()
	d.gw = gateway.New(gateway.Config{
		MaxQueueSize: cfg.Gateway.MaxQueueSize,
		DataDir:      cfg.DataDir,
		AgentOptions: agent.Options{Model: cfg.Agent.Model, MaxTurns: cfg.Agent.MaxTurns},
	}, turn, store, d.router)

	d.hb = heartbeat.New(cfg.ToHeartbeatConfig(), d.events, d.gw)

	if err := d.buildAdapters(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Daemon) buildAdapters() error {
	if d.cfg.Telegram.Enabled {
		bot, err := telegram.New(d.cfg.Telegram, d.onInbound)
		if err != nil {
			return fmt.Errorf("daemon: telegram adapter: %w", err)
		}
		d.adapters = append(d.adapters, bot)
	}
	if d.cfg.Slack.Enabled {
		bot, err := slack.New(d.cfg.Slack, d.onInbound)
		if err != nil {
			return fmt.Errorf("daemon: slack adapter: %w", err)
		}
		d.adapters = append(d.adapters, bot)
	}
	return nil
}

func (d *Daemon) onInbound(msg adapter.Message) {
	if err := d.gw.Enqueue(context.Background(), msg); err != nil {
		logging.Warn("daemon: inbound message dropped", "source", msg.Source, "error", err)
	}
}

// Start brings every component up in dependency order: gateway consumer
// first (so nothing enqueued during adapter startup is lost), then cron
// and heartbeat timers, then the adapters themselves, registered with
// the router only once they're live.
func (d *Daemon) Start(ctx context.Context) error {
	d.gw.Start(ctx)
	d.cronOwner.Rearm()
	d.hb.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range d.adapters {
		a := a
		g.Go(func() error {
			if err := a.Start(gctx); err != nil {
				return fmt.Errorf("start adapter %s: %w", a.Name(), err)
			}
			d.router.Register(a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	logging.Info("daemon: started", "adapters", len(d.adapters), "cronJobs", len(d.cronStore.All()))
	return nil
}

// Run blocks until ctx is cancelled, then runs the stop sequence under
// the shutdown watchdog.
func (d *Daemon) Run(ctx context.Context) error {
	<-ctx.Done()
	return d.Stop()
}

// Stop runs the shutdown sequence: gateway consumer first (it finishes
// its current turn but takes no new one), then adapters, then heartbeat
// and cron. A watchdog force-exits the process if this takes longer than
// shutdownTimeout.
func (d *Daemon) Stop() error {
	watchdog := time.AfterFunc(shutdownTimeout, func() {
		logging.Error("daemon: shutdown watchdog expired, forcing exit")
		os.Exit(1)
	})
	defer watchdog.Stop()

	d.gw.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var g errgroup.Group
	for _, a := range d.adapters {
		a := a
		g.Go(func() error {
			if err := a.Stop(stopCtx); err != nil {
				logging.Warn("daemon: adapter stop failed", "adapter", a.Name(), "error", err)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	d.hb.Stop()
	d.cronOwner.Stop()
	d.cronStore.StopWatch()

	logging.Info("daemon: stopped")
	return nil
}
