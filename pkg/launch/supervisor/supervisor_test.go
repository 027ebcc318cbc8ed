package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/craftlaunch/internal/gamedir"
	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
	"github.com/provide-io/craftlaunch/pkg/settings"
)

const versionDocument = `{
	"id": "1.21",
	"type": "release",
	"mainClass": "net.minecraft.client.main.Main",
	"assets": "17",
	"javaVersion": {"component": "java-runtime-delta", "majorVersion": 21},
	"libraries": [{"name": "com.mojang:brigadier:1.2.9"}],
	"arguments": {
		"jvm": ["-Djava.library.path=${natives_directory}", "-cp", "${classpath}"],
		"game": [
			"--username", "${auth_player_name}",
			"--version", "${version_name}",
			"--uuid", "${auth_uuid}",
			"--accessToken", "${auth_access_token}",
			{"rules": [{"action": "allow", "features": {"has_custom_resolution": true}}],
			 "value": ["--width", "${resolution_width}", "--height", "${resolution_height}"]}
		]
	}
}`

// Prints its arguments one per line, writes to stderr and exits 3.
const echoJava = `#!/bin/sh
echo started
for a in "$@"; do echo "arg:$a"; done
echo "to stderr" >&2
exit 3
`

// Runs until the file named in STOP exists.
const waitingJava = `#!/bin/sh
echo waiting
while [ ! -f "$STOP" ]; do sleep 0.05; done
exit 0
`

// Exits while a background child still holds stdout and stderr.
const detachingJava = `#!/bin/sh
echo detaching
sleep 3 &
exit 0
`

type fixture struct {
	layout  gamedir.Layout
	java    string
	player  settings.PlayerProfile
	profile settings.GameProfile
	game    settings.GameSettings
	metrics *Metrics
}

func newFixture(t *testing.T, javaBody string) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("launch scripts are exercised with /bin/sh")
	}

	root := t.TempDir()
	layout := gamedir.New(filepath.Join(root, "data"))
	require.NoError(t, layout.EnsureDirs(gamedir.DefaultDirectories...))

	require.NoError(t, os.MkdirAll(layout.VersionDir("1.21"), 0o755))
	require.NoError(t, os.WriteFile(layout.VersionJSON("1.21"), []byte(versionDocument), 0o644))
	require.NoError(t, os.WriteFile(layout.ClientJar("1.21"), []byte("jar"), 0o644))

	lib := filepath.Join(layout.Libraries(), "com", "mojang", "brigadier", "1.2.9", "brigadier-1.2.9.jar")
	require.NoError(t, os.MkdirAll(filepath.Dir(lib), 0o755))
	require.NoError(t, os.WriteFile(lib, []byte("jar"), 0o644))
	require.NoError(t, os.MkdirAll(layout.ProfileDir("main"), 0o755))

	java := filepath.Join(root, "bin", "java")
	require.NoError(t, os.MkdirAll(filepath.Dir(java), 0o755))
	require.NoError(t, os.WriteFile(java, []byte(javaBody), 0o755))

	return &fixture{
		layout:  layout,
		java:    java,
		player:  settings.PlayerProfile{ID: "account-1", Username: "player", Kind: settings.KindOffline},
		profile: settings.GameProfile{Name: "main", Version: "1.21", Runtime: "java21"},
		game: settings.GameSettings{
			MemoryMB:   2048,
			Resolution: settings.Resolution{Width: 1280, Height: 720},
			ShowLogs:   true,
		},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
}

func (f *fixture) supervisor(mutate ...func(*Config)) *Supervisor {
	cfg := Config{
		Layout:      f.layout,
		Runtimes:    settings.NewStaticRuntimeLocator([]settings.Runtime{{Name: "java21", Path: f.java, Major: 21}}),
		Credentials: settings.NewStaticCredentialProvider(nil),
		Metrics:     f.metrics,
		Logger:      hclog.New(&hclog.LoggerOptions{Level: hclog.Trace, Output: os.Stderr}),
		Launcher:    settings.LauncherInfo{Name: "craftlaunch", Version: "test"},
		VerifyFiles: true,
		Environment: func(features map[string]bool) rules.Environment {
			return rules.Environment{OSName: "linux", Arch: "x86_64", Features: features}
		},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

// collect reads until the channel closes.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(15 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("event stream did not close; got %v", out)
		}
	}
}

// next reads one event.
func next(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event stream closed early")
		return ev
	case <-time.After(15 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func steps(events []Event) []State {
	var out []State
	for _, ev := range events {
		if ev.Kind == EventStep {
			out = append(out, ev.State)
		}
	}
	return out
}

func outputLines(events []Event, stream Stream) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind == EventOutput && ev.Stream == stream {
			out = append(out, ev.Line)
		}
	}
	return out
}

func scriptFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestLaunchRunsGameAndReportsAbnormalExit(t *testing.T) {
	f := newFixture(t, echoJava)
	sup := f.supervisor()

	events := collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))
	require.NotEmpty(t, events)

	assert.Equal(t, []State{
		StateResolvingMetadata,
		StateResolvingRuntime,
		StateComposing,
		StateVerifying,
		StateScriptGenerated,
		StateRunning,
	}, steps(events))

	var success *Event
	for i := range events {
		if events[i].Kind == EventSuccess {
			success = &events[i]
		}
	}
	require.NotNil(t, success)
	assert.Positive(t, success.Pid)

	stdout := outputLines(events, Stdout)
	assert.Equal(t, "started", stdout[0])
	assert.Contains(t, stdout, "arg:-Xmx2048M")
	assert.Contains(t, stdout, "arg:net.minecraft.client.main.Main")
	assert.Contains(t, stdout, "arg:player")
	assert.Contains(t, stdout, "arg:"+settings.OfflineAccessToken)
	assert.Contains(t, stdout, "arg:1280")
	assert.Contains(t, stdout, "arg:720")
	assert.Equal(t, []string{"to stderr"}, outputLines(events, Stderr))

	last := events[len(events)-1]
	assert.Equal(t, EventExited, last.Kind)
	assert.Equal(t, 3, last.Code)
	assert.True(t, last.Abnormal)
	assert.Equal(t, "exited abnormally with code 3", last.String())

	assert.Zero(t, sup.Registry().Len())
	assert.Empty(t, scriptFiles(t, f.layout.Scripts()), "script removed after exit")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Attempts.WithLabelValues(ResultStarted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exits.WithLabelValues("true")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RunningInstances))
}

func TestLaunchHidesOutputWithoutShowLogs(t *testing.T) {
	f := newFixture(t, echoJava)
	f.game.ShowLogs = false

	events := collect(t, f.supervisor().Launch(context.Background(), f.player, f.profile, f.game))
	for _, ev := range events {
		assert.NotEqual(t, EventOutput, ev.Kind)
	}
	assert.Equal(t, EventExited, events[len(events)-1].Kind)
}

func TestLaunchPassesShellCharactersThrough(t *testing.T) {
	f := newFixture(t, echoJava)
	f.game.JVMArguments = "'-Dx=$HOME' '-Dq=a\"b' '-Dc=`id`'"

	events := collect(t, f.supervisor().Launch(context.Background(), f.player, f.profile, f.game))
	stdout := outputLines(events, Stdout)
	require.NotEmpty(t, stdout, "script failed before the game ran: %v", events)

	assert.Contains(t, stdout, "arg:-Dx=$HOME")
	assert.Contains(t, stdout, `arg:-Dq=a"b`)
	assert.Contains(t, stdout, "arg:-Dc=`id`")
	assert.Equal(t, 3, events[len(events)-1].Code)
}

func TestLaunchDoesNotWaitForDetachedOutput(t *testing.T) {
	f := newFixture(t, detachingJava)
	sup := f.supervisor(func(c *Config) { c.OutputGrace = 100 * time.Millisecond })

	start := time.Now()
	events := collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))
	assert.Less(t, time.Since(start), 2500*time.Millisecond)

	assert.Equal(t, []string{"detaching"}, outputLines(events, Stdout))
	last := events[len(events)-1]
	assert.Equal(t, EventExited, last.Kind)
	assert.Zero(t, last.Code)
	assert.False(t, last.Abnormal)
	assert.False(t, sup.IsAccountBusy("account-1"))
}

func TestAccountBusyWhileRunning(t *testing.T) {
	f := newFixture(t, waitingJava)
	stop := filepath.Join(t.TempDir(), "stop")
	t.Setenv("STOP", stop)
	sup := f.supervisor()

	assert.False(t, sup.IsAccountBusy("account-1"))

	events := sup.Launch(context.Background(), f.player, f.profile, f.game)
	for {
		ev := next(t, events)
		require.NotEqual(t, EventFailed, ev.Kind, "launch failed: %v", ev.Err)
		if ev.Kind == EventSuccess {
			break
		}
	}

	assert.True(t, sup.IsAccountBusy("account-1"))
	assert.False(t, sup.IsAccountBusy("account-2"))
	require.Len(t, sup.Registry().Handles("account-1"), 1)
	assert.Equal(t, "main", sup.Registry().Handles("account-1")[0].Profile)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunningInstances))

	require.NoError(t, os.WriteFile(stop, nil, 0o644))

	rest := collect(t, events)
	last := rest[len(rest)-1]
	assert.Equal(t, EventExited, last.Kind)
	assert.False(t, last.Abnormal)
	assert.Zero(t, last.Code)
	assert.False(t, sup.IsAccountBusy("account-1"))
}

func TestKillReportsAbnormalExit(t *testing.T) {
	f := newFixture(t, waitingJava)
	t.Setenv("STOP", filepath.Join(t.TempDir(), "never"))
	sup := f.supervisor()

	events := sup.Launch(context.Background(), f.player, f.profile, f.game)
	for ev := next(t, events); ev.Kind != EventSuccess; ev = next(t, events) {
		require.False(t, ev.Terminal(), "unexpected %v", ev)
	}

	handles := sup.Registry().Handles("account-1")
	require.Len(t, handles, 1)
	require.NoError(t, handles[0].Kill())

	rest := collect(t, events)
	last := rest[len(rest)-1]
	assert.Equal(t, EventExited, last.Kind)
	assert.True(t, last.Abnormal)
	assert.False(t, sup.IsAccountBusy("account-1"))
}

func TestLaunchVerificationFailureNeverSpawns(t *testing.T) {
	f := newFixture(t, echoJava)
	missing := filepath.Join(f.layout.Libraries(), "com", "mojang", "brigadier", "1.2.9", "brigadier-1.2.9.jar")
	require.NoError(t, os.Remove(missing))
	sup := f.supervisor()

	events := collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))
	last := events[len(events)-1]
	require.Equal(t, EventFailed, last.Kind)

	var verr *launcherrors.VerificationError
	require.True(t, errors.As(last.Err, &verr))
	assert.Equal(t, missing, verr.Path)
	assert.ErrorIs(t, last.Err, launcherrors.ErrVerificationFailed)

	for _, ev := range events {
		assert.NotEqual(t, EventSuccess, ev.Kind)
	}
	assert.Equal(t, StateVerifying, steps(events)[len(steps(events))-1])
	assert.Zero(t, sup.Registry().Len())
	assert.Empty(t, scriptFiles(t, f.layout.Scripts()))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Attempts.WithLabelValues(ResultFailed)))
}

func TestLaunchVerificationChecksAssetsAndProfile(t *testing.T) {
	f := newFixture(t, echoJava)
	require.NoError(t, os.RemoveAll(f.layout.Assets()))

	events := collect(t, f.supervisor().Launch(context.Background(), f.player, f.profile, f.game))
	last := events[len(events)-1]
	var verr *launcherrors.VerificationError
	require.True(t, errors.As(last.Err, &verr))
	assert.Equal(t, f.layout.Assets(), verr.Path)

	f = newFixture(t, echoJava)
	f.profile.Directory = filepath.Join(t.TempDir(), "absent")
	events = collect(t, f.supervisor().Launch(context.Background(), f.player, f.profile, f.game))
	last = events[len(events)-1]
	require.True(t, errors.As(last.Err, &verr))
	assert.Equal(t, f.profile.Directory, verr.Path)
}

func TestLaunchFailures(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(f *fixture)
		want      error
		lastState State
	}{
		{
			name:   "no player",
			mutate: func(f *fixture) { f.player = settings.PlayerProfile{} },
			want:   launcherrors.ErrNoPlayerProfile,
		},
		{
			name:   "no profile",
			mutate: func(f *fixture) { f.profile = settings.GameProfile{} },
			want:   launcherrors.ErrNoGameProfile,
		},
		{
			name:      "missing version",
			mutate:    func(f *fixture) { f.profile.Version = "9.99" },
			want:      launcherrors.ErrMetadataNotFound,
			lastState: StateResolvingMetadata,
		},
		{
			name:      "unknown runtime",
			mutate:    func(f *fixture) { f.profile.Runtime = "java8" },
			want:      launcherrors.ErrNoValidRuntime,
			lastState: StateResolvingRuntime,
		},
		{
			name:      "msa player without token",
			mutate:    func(f *fixture) { f.player.Kind = settings.KindMSA },
			want:      launcherrors.ErrLaunchFailed,
			lastState: StateComposing,
		},
		{
			name:      "malformed jvm arguments",
			mutate:    func(f *fixture) { f.game.JVMArguments = `-Dx="open` },
			want:      launcherrors.ErrLaunchFailed,
			lastState: StateComposing,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, echoJava)
			tc.mutate(f)
			sup := f.supervisor()

			events := collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))
			last := events[len(events)-1]
			require.Equal(t, EventFailed, last.Kind)
			assert.ErrorIs(t, last.Err, tc.want)

			got := steps(events)
			if tc.lastState == StateIdle {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tc.lastState, got[len(got)-1])
			}
			assert.Zero(t, sup.Registry().Len())
		})
	}
}

func TestLaunchRuntimeTooOld(t *testing.T) {
	f := newFixture(t, echoJava)
	sup := f.supervisor(func(c *Config) {
		c.Runtimes = settings.NewStaticRuntimeLocator([]settings.Runtime{{Name: "java21", Path: f.java, Major: 17}})
	})

	events := collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))
	var rerr *launcherrors.NoValidRuntimeError
	require.True(t, errors.As(events[len(events)-1].Err, &rerr))
	assert.Equal(t, 21, rerr.Expected)
	assert.Equal(t, 17, rerr.Actual)
}

func TestLaunchCancelledBeforeSpawn(t *testing.T) {
	f := newFixture(t, echoJava)
	sup := f.supervisor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collect(t, sup.Launch(ctx, f.player, f.profile, f.game))
	for _, ev := range events {
		assert.NotEqual(t, EventSuccess, ev.Kind)
	}
	assert.Zero(t, sup.Registry().Len())
	assert.Empty(t, scriptFiles(t, f.layout.Scripts()))
}

func TestKeepScripts(t *testing.T) {
	f := newFixture(t, echoJava)
	sup := f.supervisor(func(c *Config) { c.KeepScripts = true })

	collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))

	names := scriptFiles(t, f.layout.Scripts())
	require.Len(t, names, 1)
	assert.True(t, strings.HasPrefix(names[0], "launch-"))
	assert.True(t, strings.HasSuffix(names[0], ".sh"))

	info, err := os.Stat(filepath.Join(f.layout.Scripts(), names[0]))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestLaunchCannotCreateScript(t *testing.T) {
	f := newFixture(t, echoJava)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	sup := f.supervisor(func(c *Config) { c.ScriptDir = filepath.Join(blocker, "scripts") })

	events := collect(t, sup.Launch(context.Background(), f.player, f.profile, f.game))
	last := events[len(events)-1]
	require.Equal(t, EventFailed, last.Kind)
	assert.ErrorIs(t, last.Err, launcherrors.ErrCannotCreateExecutable)
}

func TestPlan(t *testing.T) {
	f := newFixture(t, echoJava)
	f.game.Priority = "below_normal"
	f.game.JVMArguments = `-Dcustom="a b"`
	f.game.DisableDefaultJVMArgs = true

	plan, err := f.supervisor().Plan(context.Background(), f.player, f.profile, f.game)
	require.NoError(t, err)

	assert.Equal(t, f.layout.ClientJar("1.21"), plan.Classpath[len(plan.Classpath)-1])
	assert.Equal(t, f.layout.ProfileDir("main"), plan.ProfileDir)
	assert.Equal(t, "account-1", plan.AccountID())
	assert.True(t, plan.Environment.Features[FeatureCustomResolution])

	assert.Contains(t, plan.JVMArgs, `"-Xmx2048M" "-Dcustom=a b"`)
	assert.NotContains(t, plan.JVMArgs, "UseG1GC")
	assert.Contains(t, plan.GameArgs, `"--width" "1280" "--height" "720"`)
	assert.Contains(t, plan.Script, "exec nice -n 10 \""+f.java+"\"")
	assert.Empty(t, scriptFiles(t, f.layout.Scripts()), "planning writes nothing")
}

func TestPlanFullscreen(t *testing.T) {
	f := newFixture(t, echoJava)
	f.game.Resolution.Fullscreen = true

	plan, err := f.supervisor().Plan(context.Background(), f.player, f.profile, f.game)
	require.NoError(t, err)
	assert.NotContains(t, plan.GameArgs, "--width")
	assert.True(t, strings.HasSuffix(plan.GameArgs, `"--fullscreen"`))
	assert.Contains(t, plan.JVMArgs, "UseG1GC")
}

func TestPlanLegacyJVMTemplates(t *testing.T) {
	f := newFixture(t, echoJava)
	legacy := `{"id": "1.21", "mainClass": "Main", "minecraftArguments": "--username ${auth_player_name}",
		"libraries": [{"name": "com.mojang:brigadier:1.2.9"}]}`
	require.NoError(t, os.WriteFile(f.layout.VersionJSON("1.21"), []byte(legacy), 0o644))
	sup := f.supervisor(func(c *Config) {
		c.Runtimes = settings.NewStaticRuntimeLocator([]settings.Runtime{{Name: "java21", Path: f.java, Major: 8}})
	})

	plan, err := sup.Plan(context.Background(), f.player, f.profile, f.game)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plan.JVMArgs, `"-Djava.library.path=`+f.layout.Natives("1.21")+`" "-cp"`))
	assert.Equal(t, `"--username" "player"`, plan.GameArgs)
}

func TestVerifyChecksums(t *testing.T) {
	f := newFixture(t, echoJava)
	// sha1("jar")
	const jarSHA1 = "f92e777f4341930bad9b2422283c4680d00dbc06"
	document := strings.Replace(versionDocument,
		`{"name": "com.mojang:brigadier:1.2.9"}`,
		`{"name": "com.mojang:brigadier:1.2.9", "downloads": {"artifact": {"sha1": "`+jarSHA1+`"}}}`, 1)
	require.NoError(t, os.WriteFile(f.layout.VersionJSON("1.21"), []byte(document), 0o644))

	sup := f.supervisor(func(c *Config) { c.VerifyChecksums = true })
	plan, err := sup.Plan(context.Background(), f.player, f.profile, f.game)
	require.NoError(t, err)

	require.NoError(t, sup.Verify(plan))

	lib := plan.Classpath[0]
	require.NoError(t, os.WriteFile(lib, []byte("tampered"), 0o644))

	err = sup.Verify(plan)
	var verr *launcherrors.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, lib, verr.Path)
	assert.Contains(t, verr.Reason, "sha1 mismatch")

	sup = f.supervisor()
	assert.NoError(t, sup.Verify(plan), "checksums are opt-in")
}
