package supervisor

import (
	"context"
	"fmt"

	"github.com/provide-io/craftlaunch/pkg/launch/compose"
	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
	"github.com/provide-io/craftlaunch/pkg/launch/metadata"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
	"github.com/provide-io/craftlaunch/pkg/settings"
	"github.com/provide-io/craftlaunch/pkg/utils/shellparse"
)

// Feature flags offered to metadata rules.
const (
	FeatureCustomResolution = "has_custom_resolution"
	FeatureDemoUser         = "is_demo_user"
)

var defaultJVMArgs = []string{
	"-XX:+UnlockExperimentalVMOptions",
	"-XX:+UseG1GC",
	"-XX:G1NewSizePercent=20",
	"-XX:G1ReservePercent=20",
	"-XX:MaxGCPauseMillis=50",
	"-XX:G1HeapRegionSize=32M",
}

// Documents without JVM templates predate them and expect these.
var legacyJVMTemplates = []metadata.ArgumentTemplate{
	metadata.Literal("-Djava.library.path=${" + compose.KeyNativesDirectory + "}"),
	metadata.Literal("-cp"),
	metadata.Literal("${" + compose.KeyClasspath + "}"),
}

// Plan is a composed launch that has not been verified or spawned.
type Plan struct {
	Player      settings.PlayerProfile
	Profile     settings.GameProfile
	Settings    settings.GameSettings
	Metadata    *metadata.VersionMetadata
	Runtime     settings.Runtime
	Environment rules.Environment
	Classpath   []string
	ProfileDir  string
	JVMArgs     string
	GameArgs    string
	Script      string
}

// AccountID is the registry key for the plan's player.
func (p *Plan) AccountID() string {
	return accountID(p.Player)
}

func accountID(player settings.PlayerProfile) string {
	if player.ID != "" {
		return player.ID
	}
	return player.Username
}

// Plan resolves and composes a launch without touching the process table.
func (s *Supervisor) Plan(ctx context.Context, player settings.PlayerProfile, profile settings.GameProfile, gs settings.GameSettings) (*Plan, error) {
	return s.plan(ctx, player, profile, gs, func(State) {})
}

func (s *Supervisor) plan(ctx context.Context, player settings.PlayerProfile, profile settings.GameProfile, gs settings.GameSettings, step func(State)) (*Plan, error) {
	if player.Username == "" {
		return nil, launcherrors.ErrNoPlayerProfile
	}
	if player.ID == "" && player.Offline() {
		player.ID = settings.OfflineUUID(player.Username)
	}
	if profile.Version == "" {
		if profile.Name == "" {
			return nil, launcherrors.ErrNoGameProfile
		}
		return nil, fmt.Errorf("%w: profile %q has no version", launcherrors.ErrNoGameProfile, profile.Name)
	}

	step(StateResolvingMetadata)
	meta, err := s.resolver.ResolveID(profile.Version)
	if err != nil {
		return nil, err
	}

	step(StateResolvingRuntime)
	runtime, err := s.runtimes.ResolveRuntime(profile.Runtime, meta.RequiredJavaMajor())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("☕ Runtime selected", "name", runtime.Name, "major", runtime.Major, "required", meta.RequiredJavaMajor())

	step(StateComposing)
	token, err := s.credentials.AccessToken(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", launcherrors.ErrLaunchFailed, err)
	}

	env := s.environment(map[string]bool{
		FeatureCustomResolution: gs.Resolution.Windowed(),
		FeatureDemoUser:         false,
	})

	layout := s.layout
	classpath, err := compose.Classpath(meta, layout.Libraries(), layout.ClientJar(meta.ClientJarID()), env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", launcherrors.ErrMetadataNotFound, err)
	}

	profileDir := profile.Directory
	if profileDir == "" {
		profileDir = layout.ProfileDir(profile.Name)
	}

	source := compose.ValueSource{
		PlayerName:       player.Username,
		PlayerUUID:       player.ID,
		AccessToken:      token,
		ClientID:         player.ClientID,
		XUID:             player.XUID,
		UserType:         player.UserType(),
		VersionName:      meta.ID,
		VersionType:      meta.Type,
		GameDirectory:    profileDir,
		AssetsRoot:       layout.Assets(),
		AssetsIndexName:  meta.AssetIndexID(),
		NativesDirectory: layout.Natives(meta.ID),
		LibraryDirectory: layout.Libraries(),
		LauncherName:     s.launcher.Name,
		LauncherVersion:  s.launcher.Version,
		Classpath:        classpath,
	}
	if gs.Resolution.Windowed() {
		source.Width, source.Height = gs.Resolution.Width, gs.Resolution.Height
	}
	values := compose.Values(source)

	jvmExtra, err := jvmExtras(gs)
	if err != nil {
		return nil, err
	}
	jvmTemplates := meta.Arguments.JVM
	if len(jvmTemplates) == 0 {
		jvmTemplates = legacyJVMTemplates
	}

	p := &Plan{
		Player:      player,
		Profile:     profile,
		Settings:    gs,
		Metadata:    meta,
		Runtime:     runtime,
		Environment: env,
		Classpath:   classpath,
		ProfileDir:  profileDir,
		JVMArgs:     s.dialect.Join(compose.Tokens(jvmTemplates, values, env, jvmExtra)),
		GameArgs:    s.dialect.Join(compose.Tokens(meta.Arguments.Game, values, env, gameExtras(gs))),
	}
	p.Script = compose.BuildScript(compose.ScriptSpec{
		ProfileDir:  p.ProfileDir,
		Interpreter: runtime.Path,
		JVMArgs:     p.JVMArgs,
		MainClass:   meta.MainClass,
		GameArgs:    p.GameArgs,
		Priority:    gs.ProcessPriority(),
		Dialect:     s.dialect,
	})
	return p, nil
}

func jvmExtras(gs settings.GameSettings) ([]string, error) {
	var extra []string
	if !gs.DisableDefaultJVMArgs {
		extra = append(extra, defaultJVMArgs...)
	}
	if gs.MemoryMB > 0 {
		extra = append(extra, fmt.Sprintf("-Xmx%dM", gs.MemoryMB))
	}

	custom, err := shellparse.Split(gs.JVMArguments)
	if err != nil {
		return nil, fmt.Errorf("%w: jvm arguments: %v", launcherrors.ErrLaunchFailed, err)
	}
	return append(extra, custom...), nil
}

func gameExtras(gs settings.GameSettings) []string {
	if gs.Resolution.Fullscreen {
		return []string{"--fullscreen"}
	}
	return nil
}
