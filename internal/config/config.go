// Package config loads and merges the daemon's on-disk JSON configuration:
// defaults first, user file deep-merged on top field by field via
// dario.cat/mergo.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"

	"github.com/padaemon/padaemon/internal/adapter/slack"
	"github.com/padaemon/padaemon/internal/adapter/telegram"
	"github.com/padaemon/padaemon/internal/heartbeat"
	"github.com/padaemon/padaemon/internal/logging"
	"github.com/padaemon/padaemon/internal/security"
)

// Config is the full on-disk configuration surface.
type Config struct {
	Workspace string          `json:"workspace"`
	DataDir   string          `json:"dataDir"`
	Logging   LoggingConfig   `json:"logging"`
	Security  SecurityConfig  `json:"security"`
	Agent     AgentConfig     `json:"agent"`
	Gateway   GatewayConfig   `json:"gateway"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
	Telegram  telegram.Config `json:"telegram"`
	Slack     slack.Config    `json:"slack"`
}

// LoggingConfig mirrors internal/logging.Config at the JSON boundary.
type LoggingConfig struct {
	Level      string `json:"level"`
	ShowCaller bool   `json:"showCaller"`
}

// SecurityConfig mirrors internal/security.Config at the JSON boundary.
type SecurityConfig struct {
	AllowedCommands     []string `json:"allowedCommands"`
	ExtraValidation     []string `json:"extraValidation"`
	AdditionalReadDirs  []string `json:"additionalReadDirs,omitempty"`
	AdditionalWriteDirs []string `json:"additionalWriteDirs,omitempty"`
}

// AgentConfig configures the external agent invocation; the agent
// itself is not implemented here.
type AgentConfig struct {
	Model    string `json:"model"`
	MaxTurns int    `json:"maxTurns"`
}

// GatewayConfig configures the inbound FIFO.
type GatewayConfig struct {
	MaxQueueSize int `json:"maxQueueSize"`
}

// HeartbeatConfig mirrors the JSON shape of heartbeat.Config, since
// heartbeat.ActiveHours needs its own string parse step.
type HeartbeatConfig struct {
	Enabled     bool   `json:"enabled"`
	IntervalMs  int64  `json:"intervalMs"`
	ActiveHours string `json:"activeHours"`
	Prompt      string `json:"prompt"`
	// DeliverTo names the single destination a non-suppressed heartbeat
	// reply is routed to, as "source--sourceId" (e.g. "telegram--12345").
	DeliverTo string `json:"deliverTo,omitempty"`
}

// ToSecurityConfig builds a security.Config from its on-disk shape, with
// Workspace filled in from the top-level config.
func (c *Config) ToSecurityConfig() security.Config {
	return security.Config{
		AllowedCommands:     c.Security.AllowedCommands,
		ExtraValidation:     c.Security.ExtraValidation,
		Workspace:           c.Workspace,
		AdditionalReadDirs:  c.Security.AdditionalReadDirs,
		AdditionalWriteDirs: c.Security.AdditionalWriteDirs,
	}
}

// ToHeartbeatConfig parses the on-disk heartbeat config into the runtime
// shape heartbeat.New expects. An invalid activeHours string falls back
// to heartbeat.AllDay with a logged warning rather than failing startup.
func (c *Config) ToHeartbeatConfig() heartbeat.Config {
	hours, err := heartbeat.ParseActiveHours(c.Heartbeat.ActiveHours)
	if err != nil {
		logging.Warn("config: invalid heartbeat.activeHours, defaulting to all-day", "value", c.Heartbeat.ActiveHours, "error", err)
		hours = heartbeat.AllDay
	}
	return heartbeat.Config{
		Enabled:     c.Heartbeat.Enabled,
		IntervalMs:  c.Heartbeat.IntervalMs,
		ActiveHours: hours,
		Prompt:      c.Heartbeat.Prompt,
		DeliverTo:   c.Heartbeat.DeliverTo,
	}
}

// Defaults returns the built-in configuration baseline, rooted under
// ~/.padaemon.
func Defaults() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".padaemon")
	return &Config{
		Workspace: filepath.Join(base, "workspace"),
		DataDir:   filepath.Join(base, "data"),
		Logging: LoggingConfig{
			Level: "info",
		},
		Security: SecurityConfig{
			AllowedCommands: []string{"ls", "cat", "grep", "echo", "mkdir", "mv", "cp", "rm", "kill", "ps", "pwd", "head", "tail", "find", "git", "curl", "wc", "sed", "awk"},
			ExtraValidation: []string{"rm", "kill"},
		},
		Agent: AgentConfig{
			MaxTurns: 25,
		},
		Gateway: GatewayConfig{
			MaxQueueSize: 20,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:     false,
			IntervalMs:  15 * 60 * 1000,
			ActiveHours: "8-22",
		},
	}
}

// Load reads path, deep-merges it onto Defaults(), expands leading "~"
// in path-like fields, and returns the resolved config. A missing file
// is not an error: Load then returns the pure defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			expandPaths(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var override Config
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge %s: %w", path, err)
	}

	expandPaths(cfg)
	return cfg, nil
}

func expandPaths(cfg *Config) {
	cfg.Workspace = expandHome(cfg.Workspace)
	cfg.DataDir = expandHome(cfg.DataDir)
	for i, dir := range cfg.Security.AdditionalReadDirs {
		cfg.Security.AdditionalReadDirs[i] = expandHome(dir)
	}
	for i, dir := range cfg.Security.AdditionalWriteDirs {
		cfg.Security.AdditionalWriteDirs[i] = expandHome(dir)
	}
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// EnsureDirs creates the workspace and data directories with owner-only
// permissions.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Workspace, c.DataDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}
	return nil
}
