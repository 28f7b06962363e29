// Package execsvc is the shell executor: it runs every security-gated
// command behind the appropriate foreground/background/yield mode, and
// publishes a system event when a backgrounded child eventually exits.
package execsvc

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/processreg"
	"github.com/padaemon/padaemon/internal/security"
	"github.com/padaemon/padaemon/internal/sysevent"
)

// AuditSink receives a record of every classify decision, win or lose.
// The daemon orchestrator wires this to internal/audit; tests may leave
// it nil.
type AuditSink interface {
	LogCommand(command string, allowed bool, reason string)
}

// Executor runs shell commands on behalf of the agent, gated by the
// command-security classifier.
type Executor struct {
	registry *processreg.Registry
	events   *sysevent.Queue
	audit    AuditSink
}

// New builds an Executor. registry and events are required collaborators
// owned and started elsewhere, and injected here.
func New(registry *processreg.Registry, events *sysevent.Queue, audit AuditSink) *Executor {
	return &Executor{registry: registry, events: events, audit: audit}
}

// Exec runs opts.Command under secCfg and returns according to the mode
// selected by opts. It never returns an error for
// security blocks or for the child's own failure exit code — those are
// reported through Result. A non-nil error indicates the executor itself
// could not spawn the shell.
func (e *Executor) Exec(ctx context.Context, opts Options, secCfg security.Config) (*Result, error) {
	verdict := security.Classify(opts.Command, secCfg)
	if e.audit != nil {
		e.audit.LogCommand(opts.Command, verdict.Allow, verdict.Reason)
	}
	if !verdict.Allow {
		return &Result{Success: false, Message: verdict.Reason}, nil
	}

	switch {
	case opts.Background:
		return e.runBackground(opts.Command)
	case opts.YieldMs > 0:
		return e.runYield(ctx, opts.Command, opts.YieldMs)
	default:
		return e.runForeground(ctx, opts.Command)
	}
}

func newCmd(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", command)
}

func (e *Executor) runForeground(ctx context.Context, command string) (*Result, error) {
	cmd := newCmd(ctx, command)
	var out syncBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("exec: failed to run command: %w", err)
		}
	}
	return &Result{
		Success:  exitCode == 0,
		Output:   out.String(),
		ExitCode: exitCode,
	}, nil
}

func (e *Executor) runBackground(command string) (*Result, error) {
	cmd := newCmd(context.Background(), command)
	var out syncBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec: failed to start background command: %w", err)
	}

	id := e.registry.Add(command, cmd.Process.Pid)

	go e.waitAndPublish(cmd, &out, id, command)

	return &Result{
		Success:   true,
		SessionID: id,
		Message:   fmt.Sprintf("started in background (session %s)", id),
	}, nil
}

func (e *Executor) runYield(ctx context.Context, command string, yieldMs int) (*Result, error) {
	cmd := newCmd(context.Background(), command)
	var out syncBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("exec: failed to start command: %w", err)
	}

	id := e.registry.Add(command, cmd.Process.Pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(time.Duration(yieldMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case err := <-done:
		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			}
		}
		e.registry.MarkExited(id, exitCode)
		return &Result{
			Success:   exitCode == 0,
			Output:    out.String(),
			ExitCode:  exitCode,
			SessionID: id,
		}, nil
	case <-timer.C:
		// Timeout wins: leave the child running, keep the exit hook
		// armed so the eventual exit still publishes a system event.
		go e.publishOnExit(done, &out, id, command)
		return &Result{
			Success:   true,
			Output:    out.String(),
			SessionID: id,
			Message:   "yield timeout reached; process is still running",
		}, nil
	}
}

func (e *Executor) waitAndPublish(cmd *exec.Cmd, out *syncBuffer, id, command string) {
	err := cmd.Wait()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			logging.Warn("execsvc: background process wait failed", "sessionId", id, "error", err)
		}
	}
	e.registry.MarkExited(id, exitCode)
	e.registry.AppendOutput(id, out.String())
	e.events.Enqueue(
		fmt.Sprintf("Background process exited: %s (exit code %d)", command, exitCode),
		sysevent.TypeExec,
	)
}

// publishOnExit is the yield-mode analog of waitAndPublish: the child's
// exit was already being awaited by a goroutine holding the wait error
// channel, so we only need to finish observing it here.
func (e *Executor) publishOnExit(done <-chan error, out *syncBuffer, id, command string) {
	err := <-done
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	e.registry.MarkExited(id, exitCode)
	e.registry.AppendOutput(id, out.String())
	e.events.Enqueue(
		fmt.Sprintf("Background process exited: %s (exit code %d)", command, exitCode),
		sysevent.TypeExec,
	)
}
