package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/provide-io/craftlaunch/internal/gamedir"
	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
	"github.com/provide-io/craftlaunch/pkg/launch/supervisor"
	"github.com/provide-io/craftlaunch/pkg/logging"
	"github.com/provide-io/craftlaunch/pkg/settings"
	"github.com/provide-io/craftlaunch/pkg/utils/permissions"
)

func parseScriptMode(s string) (os.FileMode, error) {
	mode, err := permissions.ParseMode(s, permissions.DefaultScriptMode)
	if err != nil {
		return 0, fmt.Errorf("script_mode: %w", err)
	}
	if !permissions.OwnerExecutable(mode) {
		return 0, fmt.Errorf("script_mode %s is not executable by its owner", permissions.Format(mode))
	}
	return mode, nil
}

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <profile>...",
		Short: "Launch one or more game profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withApp(runLaunch),
	}
	cmd.Flags().StringVarP(&playerName, "player", "p", "", "Player username or ID (defaults to the selected player)")
	return cmd
}

// lookup resolves the player and the named profiles from settings.
func lookup(a *app, names []string) (settings.PlayerProfile, []settings.GameProfile, error) {
	player, ok := a.cfg.Player(playerName)
	if !ok {
		return player, nil, fmt.Errorf("%w: %q", launcherrors.ErrNoPlayerProfile, playerName)
	}

	profiles := make([]settings.GameProfile, 0, len(names))
	for _, name := range names {
		profile, ok := a.cfg.Profile(name)
		if !ok {
			return player, nil, fmt.Errorf("%w: %q", launcherrors.ErrNoGameProfile, name)
		}
		profiles = append(profiles, profile)
	}
	return player, profiles, nil
}

func runLaunch(a *app, cmd *cobra.Command, args []string) error {
	player, profiles, err := lookup(a, args)
	if err != nil {
		return err
	}

	if err := a.layout.EnsureDirs(gamedir.DefaultDirectories...); err != nil {
		return withCode(ExitIOError, err)
	}
	for _, profile := range profiles {
		if profile.Directory == "" {
			if err := os.MkdirAll(a.layout.ProfileDir(profile.Name), 0o755); err != nil {
				return withCode(ExitIOError, err)
			}
		}
	}
	if _, err := supervisor.CleanupStaleScripts(a.layout.Scripts(), a.logger); err != nil {
		a.logger.Debug("⚠️ Stale script cleanup failed", "error", err)
	}

	sup, err := a.supervisor()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	results := make([]launchResult, len(profiles))
	var g errgroup.Group

	for i, profile := range profiles {
		if sup.IsAccountBusy(accountKey(player)) {
			color.New(color.FgYellow).Fprintf(out,
				"⚠️  %s is already playing; running two instances can corrupt shared worlds\n", player.Username)
		}

		started := make(chan struct{})
		events := sup.Launch(ctx, player, profile, a.cfg.Effective(profile))
		g.Go(func() error {
			results[i] = consume(out, profile.Name, events, started)
			return nil
		})
		// Wait for the spawn so the next busy check sees this instance.
		<-started
	}
	_ = g.Wait()

	return summarize(results)
}

func accountKey(p settings.PlayerProfile) string {
	if p.ID != "" {
		return p.ID
	}
	return p.Username
}

// launchResult is what one attempt ended with.
type launchResult struct {
	err    error
	code   int
	exited bool
}

var printMu sync.Mutex

func printf(out io.Writer, c *color.Color, format string, args ...any) {
	printMu.Lock()
	defer printMu.Unlock()
	c.Fprintf(out, format, args...)
}

// consume prints an attempt's events. started is closed once the game is
// running or the attempt has ended.
func consume(out io.Writer, profile string, events <-chan supervisor.Event, started chan<- struct{}) launchResult {
	var once sync.Once
	release := func() { once.Do(func() { close(started) }) }
	defer release()

	stdout := logging.NewPrefixWriter(fmt.Sprintf("[%s] ", profile), out)
	stderr := logging.NewPrefixWriter(fmt.Sprintf("[%s] ", profile), os.Stderr)
	defer stdout.Flush()
	defer stderr.Flush()

	var result launchResult
	for ev := range events {
		switch ev.Kind {
		case supervisor.EventStep:
			printf(out, color.New(color.FgCyan), "▶ [%s] %s\n", profile, ev.State)
		case supervisor.EventSuccess:
			printf(out, color.New(color.FgGreen), "✅ [%s] started (pid %d)\n", profile, ev.Pid)
			release()
		case supervisor.EventOutput:
			w := stdout
			if ev.Stream == supervisor.Stderr {
				w = stderr
			}
			fmt.Fprintln(w, ev.Line)
		case supervisor.EventFailed:
			printf(out, color.New(color.FgRed), "❌ [%s] %v\n", profile, ev.Err)
			result.err = ev.Err
		case supervisor.EventExited:
			if ev.Abnormal {
				printf(out, color.New(color.FgYellow), "⚠️  [%s] exited abnormally with code %d\n", profile, ev.Code)
			} else {
				printf(out, color.New(color.FgGreen), "⏹️  [%s] exited\n", profile)
			}
			result.code, result.exited = ev.Code, true
		}
	}
	return result
}

// summarize picks the command's outcome: a single launch exits with the
// game's own code; otherwise the first failure decides. Failures were already
// printed, so the returned error carries only the code.
func summarize(results []launchResult) error {
	for _, r := range results {
		if r.err != nil {
			return withCode(exitCodeFor(r.err), nil)
		}
	}
	if len(results) == 1 && results[0].exited && results[0].code != 0 {
		code := results[0].code
		if code < 0 {
			code = ExitExecutionError
		}
		return withCode(code, nil)
	}
	return nil
}
