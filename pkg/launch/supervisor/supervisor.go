// Package supervisor runs launch attempts: it resolves and composes a launch,
// writes the script, spawns it and reports progress on a channel while
// tracking live processes per account.
package supervisor

import (
	"context"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/internal/gamedir"
	"github.com/provide-io/craftlaunch/pkg/launch/compose"
	"github.com/provide-io/craftlaunch/pkg/launch/metadata"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
	"github.com/provide-io/craftlaunch/pkg/settings"
	"github.com/provide-io/craftlaunch/pkg/utils/permissions"
)

const (
	eventBuffer = 16

	// DefaultOutputGrace bounds how long output is read after the game exits.
	DefaultOutputGrace = 5 * time.Second
)

// Config wires a Supervisor. Layout, Runtimes and Credentials are required.
type Config struct {
	Layout      gamedir.Layout
	Runtimes    settings.RuntimeLocator
	Credentials settings.CredentialProvider

	// Registry defaults to a fresh one. Share it to make busy checks span
	// several supervisors.
	Registry *Registry
	// Metrics defaults to unregistered collectors.
	Metrics *Metrics
	Logger  hclog.Logger

	Launcher    settings.LauncherInfo
	VerifyFiles bool
	// VerifyChecksums also checks library SHA-1 sums; needs VerifyFiles.
	VerifyChecksums bool
	KeepScripts     bool
	// ScriptDir defaults to Layout.Scripts().
	ScriptDir string
	// ScriptMode defaults to 0700.
	ScriptMode os.FileMode
	// OutputGrace defaults to DefaultOutputGrace. Processes the game leaves
	// behind can hold its output open; after this long they are ignored.
	OutputGrace time.Duration

	// Environment builds the rule environment from feature flags. Defaults
	// to rules.CurrentEnvironment.
	Environment func(features map[string]bool) rules.Environment
}

// Supervisor owns launch attempts. It is safe for concurrent use.
type Supervisor struct {
	layout          gamedir.Layout
	resolver        *metadata.Resolver
	runtimes        settings.RuntimeLocator
	credentials     settings.CredentialProvider
	registry        *Registry
	metrics         *Metrics
	logger          hclog.Logger
	launcher        settings.LauncherInfo
	verify          bool
	verifyChecksums bool
	keepScripts     bool
	scriptDir       string
	scriptMode      os.FileMode
	outputGrace     time.Duration
	dialect         compose.Dialect
	environment     func(map[string]bool) rules.Environment
}

// New builds a Supervisor from cfg.
func New(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	scriptDir := cfg.ScriptDir
	if scriptDir == "" {
		scriptDir = cfg.Layout.Scripts()
	}
	scriptMode := cfg.ScriptMode
	if scriptMode == 0 {
		scriptMode = permissions.DefaultScriptMode
	}
	outputGrace := cfg.OutputGrace
	if outputGrace <= 0 {
		outputGrace = DefaultOutputGrace
	}
	environment := cfg.Environment
	if environment == nil {
		environment = rules.CurrentEnvironment
	}

	return &Supervisor{
		layout:          cfg.Layout,
		resolver:        metadata.NewResolver(cfg.Layout.Versions(), logger),
		runtimes:        cfg.Runtimes,
		credentials:     cfg.Credentials,
		registry:        registry,
		metrics:         metrics,
		logger:          logger.Named("supervisor"),
		launcher:        cfg.Launcher,
		verify:          cfg.VerifyFiles,
		verifyChecksums: cfg.VerifyChecksums,
		keepScripts:     cfg.KeepScripts,
		scriptDir:       scriptDir,
		scriptMode:      scriptMode,
		outputGrace:     outputGrace,
		dialect:         compose.HostDialect(),
		environment:     environment,
	}
}

// Registry returns the registry live processes are tracked in.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// IsAccountBusy reports whether accountID has a running game. The answer is
// advisory; Launch never refuses a busy account.
func (s *Supervisor) IsAccountBusy(accountID string) bool {
	return s.registry.IsBusy(accountID)
}

// attempt is the per-launch state owned by one run goroutine.
type attempt struct {
	ctx     context.Context
	events  chan<- Event
	logger  hclog.Logger
	started time.Time
	state   State
}

// send delivers ev unless the consumer has gone away.
func (a *attempt) send(ev Event) bool {
	select {
	case a.events <- ev:
		return true
	case <-a.ctx.Done():
		return false
	}
}

func (a *attempt) step(state State) {
	a.state = state
	a.logger.Debug("➡️ Launch step", "state", state)
	a.send(Event{Kind: EventStep, State: state})
}

// Launch starts a launch attempt and returns its event stream. Events arrive
// in order: a Step per stage, then either Failed, or Success followed by
// Output lines and a final Exited. The channel is closed after the last one.
//
// Cancelling ctx stops event delivery and, before the spawn, the attempt.
// A game that has already started keeps running and is still tracked until
// it exits.
func (s *Supervisor) Launch(ctx context.Context, player settings.PlayerProfile, profile settings.GameProfile, gs settings.GameSettings) <-chan Event {
	events := make(chan Event, eventBuffer)
	a := &attempt{
		ctx:     ctx,
		events:  events,
		logger:  s.logger.With("profile", profile.Name, "player", player.Username),
		started: time.Now(),
		state:   StateIdle,
	}
	go s.run(a, player, profile, gs)
	return events
}

func (s *Supervisor) run(a *attempt, player settings.PlayerProfile, profile settings.GameProfile, gs settings.GameSettings) {
	defer close(a.events)

	plan, err := s.plan(a.ctx, player, profile, gs, a.step)
	if err != nil {
		s.fail(a, err)
		return
	}

	a.step(StateVerifying)
	if s.verify {
		if err := s.Verify(plan); err != nil {
			s.fail(a, err)
			return
		}
	}

	a.step(StateScriptGenerated)
	scriptPath, err := s.writeScript(plan.Script)
	if err != nil {
		s.fail(a, err)
		return
	}

	if err := a.ctx.Err(); err != nil {
		s.removeScript(scriptPath)
		s.fail(a, err)
		return
	}

	a.step(StateRunning)
	proc, err := s.spawn(plan, scriptPath, a.logger)
	if err != nil {
		s.removeScript(scriptPath)
		s.fail(a, err)
		return
	}

	s.registry.Add(proc.handle)
	s.metrics.observeAttempt(ResultStarted, time.Since(a.started).Seconds())
	s.metrics.observeStart()
	a.state = StateSucceeded
	a.logger.Info("🚀 Game started", "pid", proc.handle.Pid, "account", proc.handle.AccountID)
	a.send(Event{Kind: EventSuccess, Pid: proc.handle.Pid})

	code := s.supervise(a, proc, gs.ShowLogs)

	s.registry.Remove(proc.handle)
	abnormal := code != 0
	s.metrics.observeExit(abnormal)
	s.removeScript(scriptPath)

	if abnormal {
		a.logger.Warn("⚠️ Game exited abnormally", "pid", proc.handle.Pid, "code", code)
	} else {
		a.logger.Info("⏹️ Game exited", "pid", proc.handle.Pid)
	}
	a.send(Event{Kind: EventExited, Code: code, Abnormal: abnormal})
}

func (s *Supervisor) fail(a *attempt, err error) {
	a.logger.Error("❌ Launch failed", "state", a.state, "error", err)
	a.state = StateFailed
	s.metrics.observeAttempt(ResultFailed, time.Since(a.started).Seconds())
	a.send(Event{Kind: EventFailed, Err: err})
}
