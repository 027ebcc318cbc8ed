package compose

import (
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Substitution keys understood by version metadata templates.
const (
	KeyPlayerName         = "auth_player_name"
	KeyVersionName        = "version_name"
	KeyGameDirectory      = "game_directory"
	KeyAssetsRoot         = "assets_root"
	KeyGameAssets         = "game_assets"
	KeyAssetsIndexName    = "assets_index_name"
	KeyUUID               = "auth_uuid"
	KeyUUIDHyphenated     = "auth_uuid_hyphenated"
	KeyAccessToken        = "auth_access_token"
	KeySession            = "auth_session"
	KeyClientID           = "clientid"
	KeyXUID               = "auth_xuid"
	KeyUserType           = "user_type"
	KeyUserProperties     = "user_properties"
	KeyVersionType        = "version_type"
	KeyResolutionWidth    = "resolution_width"
	KeyResolutionHeight   = "resolution_height"
	KeyNativesDirectory   = "natives_directory"
	KeyLauncherName       = "launcher_name"
	KeyLauncherVersion    = "launcher_version"
	KeyClasspath          = "classpath"
	KeyClasspathSeparator = "classpath_separator"
	KeyLibraryDirectory   = "library_directory"
)

// ValueSource is everything the substitution map is built from.
type ValueSource struct {
	PlayerName       string
	PlayerUUID       string
	AccessToken      string
	ClientID         string
	XUID             string
	UserType         string
	VersionName      string
	VersionType      string
	GameDirectory    string
	AssetsRoot       string
	AssetsIndexName  string
	NativesDirectory string
	LibraryDirectory string
	LauncherName     string
	LauncherVersion  string
	Classpath        []string
	Width            int
	Height           int
}

// Values builds the placeholder map for s.
func Values(s ValueSource) map[string]string {
	flat, hyphenated := UUIDForms(s.PlayerUUID)

	values := map[string]string{
		KeyPlayerName:         s.PlayerName,
		KeyVersionName:        s.VersionName,
		KeyGameDirectory:      s.GameDirectory,
		KeyAssetsRoot:         s.AssetsRoot,
		KeyGameAssets:         s.AssetsRoot,
		KeyAssetsIndexName:    s.AssetsIndexName,
		KeyUUID:               flat,
		KeyUUIDHyphenated:     hyphenated,
		KeyAccessToken:        s.AccessToken,
		KeySession:            s.AccessToken,
		KeyClientID:           s.ClientID,
		KeyXUID:               s.XUID,
		KeyUserType:           s.UserType,
		KeyUserProperties:     "{}",
		KeyVersionType:        s.VersionType,
		KeyNativesDirectory:   s.NativesDirectory,
		KeyLibraryDirectory:   s.LibraryDirectory,
		KeyLauncherName:       s.LauncherName,
		KeyLauncherVersion:    s.LauncherVersion,
		KeyClasspath:          JoinClasspath(s.Classpath),
		KeyClasspathSeparator: string(os.PathListSeparator),
	}
	if s.Width > 0 && s.Height > 0 {
		values[KeyResolutionWidth] = strconv.Itoa(s.Width)
		values[KeyResolutionHeight] = strconv.Itoa(s.Height)
	}
	return values
}

// UUIDForms returns the flat 32-hex and hyphenated forms of id. Values that do
// not parse as a UUID are returned as given in both positions.
func UUIDForms(id string) (flat, hyphenated string) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id, id
	}
	hyphenated = parsed.String()
	return strings.ReplaceAll(hyphenated, "-", ""), hyphenated
}
