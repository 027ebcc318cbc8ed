// Package settings loads launcher configuration: global game settings, player
// accounts, game profiles and the configured Java runtimes.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/provide-io/craftlaunch/pkg/launch/compose"
)

// EnvPrefix is the prefix for environment overrides of config keys, e.g.
// CRAFTLAUNCH_SETTINGS_MEMORY_MB.
const EnvPrefix = "CRAFTLAUNCH"

// Player kinds.
const (
	KindMSA     = "msa"
	KindOffline = "offline"
)

// Resolution is the window geometry handed to the game.
type Resolution struct {
	Fullscreen bool `mapstructure:"fullscreen" json:"fullscreen"`
	Width      int  `mapstructure:"width" json:"width"`
	Height     int  `mapstructure:"height" json:"height"`
}

// Windowed reports whether an explicit window size should be passed.
func (r Resolution) Windowed() bool {
	return !r.Fullscreen && r.Width > 0 && r.Height > 0
}

// GameSettings are the per-launch knobs.
type GameSettings struct {
	MemoryMB              int        `mapstructure:"memory_mb" json:"memory_mb"`
	Resolution            Resolution `mapstructure:"resolution" json:"resolution"`
	Priority              string     `mapstructure:"priority" json:"priority"`
	JVMArguments          string     `mapstructure:"jvm_arguments" json:"jvm_arguments"`
	DisableDefaultJVMArgs bool       `mapstructure:"disable_default_jvm_args" json:"disable_default_jvm_args"`
	ShowLogs              bool       `mapstructure:"show_logs" json:"show_logs"`
}

// ProcessPriority parses Priority. Invalid values are rejected by Validate, so
// here they fall back to normal.
func (s GameSettings) ProcessPriority() compose.Priority {
	p, err := compose.ParsePriority(s.Priority)
	if err != nil {
		return compose.PriorityNormal
	}
	return p
}

// PlayerProfile identifies who is playing.
type PlayerProfile struct {
	ID       string `mapstructure:"id" json:"id"`
	Username string `mapstructure:"username" json:"username"`
	Kind     string `mapstructure:"kind" json:"kind"`
	XUID     string `mapstructure:"xuid" json:"xuid,omitempty"`
	ClientID string `mapstructure:"client_id" json:"client_id,omitempty"`
}

// Offline reports whether the player has no Microsoft account behind it.
func (p PlayerProfile) Offline() bool {
	return p.Kind == KindOffline
}

// UserType is the value substituted for ${user_type}.
func (p PlayerProfile) UserType() string {
	if p.Offline() {
		return "legacy"
	}
	return KindMSA
}

// PlayerConfig is a configured account. AccessToken feeds the static
// credential provider.
type PlayerConfig struct {
	PlayerProfile `mapstructure:",squash"`
	AccessToken   string `mapstructure:"access_token" json:"-"`
}

// GameProfile is one launchable installation.
type GameProfile struct {
	Name      string        `mapstructure:"name" json:"name"`
	Version   string        `mapstructure:"version" json:"version"`
	Directory string        `mapstructure:"directory" json:"directory,omitempty"`
	Runtime   string        `mapstructure:"runtime" json:"runtime,omitempty"`
	Settings  *GameSettings `mapstructure:"settings" json:"settings,omitempty"`
}

// LauncherInfo is substituted for ${launcher_name} and ${launcher_version}.
type LauncherInfo struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Config is the whole settings document.
type Config struct {
	DataDir         string         `mapstructure:"data_dir"`
	Launcher        LauncherInfo   `mapstructure:"launcher"`
	Settings        GameSettings   `mapstructure:"settings"`
	Runtimes        []Runtime      `mapstructure:"runtimes"`
	Players         []PlayerConfig `mapstructure:"players"`
	SelectedPlayer  string         `mapstructure:"selected_player"`
	Profiles        []GameProfile  `mapstructure:"profiles"`
	VerifyFiles     bool           `mapstructure:"verify_files"`
	VerifyChecksums bool           `mapstructure:"verify_checksums"`
	KeepScripts     bool           `mapstructure:"keep_scripts"`
	ScriptMode      string         `mapstructure:"script_mode"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("launcher.name", "craftlaunch")
	v.SetDefault("launcher.version", "dev")
	v.SetDefault("settings.memory_mb", 2048)
	v.SetDefault("settings.resolution.fullscreen", false)
	v.SetDefault("settings.resolution.width", 854)
	v.SetDefault("settings.resolution.height", 480)
	v.SetDefault("settings.priority", compose.PriorityNormal.String())
	v.SetDefault("settings.jvm_arguments", "")
	v.SetDefault("settings.disable_default_jvm_args", false)
	v.SetDefault("settings.show_logs", false)
	v.SetDefault("selected_player", "")
	v.SetDefault("verify_files", true)
	v.SetDefault("verify_checksums", false)
	v.SetDefault("keep_scripts", false)
	v.SetDefault("script_mode", "0700")
}

// Load reads the config at path (YAML, JSON or TOML by extension). An empty
// path searches for craftlaunch.* in the working directory and falls back to
// defaults when none exists. CRAFTLAUNCH_* environment variables override
// scalar keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("craftlaunch")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := compose.ParsePriority(c.Settings.Priority); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if p.Name == "" || p.Version == "" {
			return fmt.Errorf("profile %q: name and version are required", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
		if p.Settings != nil {
			if _, err := compose.ParsePriority(p.Settings.Priority); err != nil {
				return fmt.Errorf("profile %q: %w", p.Name, err)
			}
		}
	}

	for _, p := range c.Players {
		if p.Username == "" {
			return fmt.Errorf("player %q: username is required", p.ID)
		}
		if p.Kind != KindMSA && p.Kind != KindOffline {
			return fmt.Errorf("player %q: unknown kind %q", p.Username, p.Kind)
		}
	}
	return nil
}

// Effective returns the settings a launch of profile uses: its own when it
// has any, the global ones otherwise.
func (c *Config) Effective(profile GameProfile) GameSettings {
	if profile.Settings != nil {
		return *profile.Settings
	}
	return c.Settings
}

// Profile looks a game profile up by name.
func (c *Config) Profile(name string) (GameProfile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return GameProfile{}, false
}

// Player looks an account up by username or ID. Empty means the selected
// player. Offline players without an ID get OfflineUUID.
func (c *Config) Player(nameOrID string) (PlayerProfile, bool) {
	if nameOrID == "" {
		nameOrID = c.SelectedPlayer
	}
	if nameOrID == "" && len(c.Players) == 1 {
		nameOrID = c.Players[0].Username
	}
	for _, p := range c.Players {
		if p.Username == nameOrID || (p.ID != "" && p.ID == nameOrID) {
			profile := p.PlayerProfile
			if profile.ID == "" && profile.Offline() {
				profile.ID = OfflineUUID(profile.Username)
			}
			return profile, true
		}
	}
	return PlayerProfile{}, false
}
