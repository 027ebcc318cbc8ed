package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/launch/rules"
)

// Library is one classpath entry of a version document.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Rules     []rules.Rule      `json:"rules,omitempty"`
}

// LibraryDownloads carries the explicit artifact descriptor, when present.
type LibraryDownloads struct {
	Artifact *Artifact `json:"artifact,omitempty"`
}

// Artifact is a downloadable file relative to the library root.
type Artifact struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// RelativePath returns the library's path below the library root. The explicit
// artifact path wins; otherwise it is derived from the Maven coordinate.
func (l Library) RelativePath() (string, error) {
	if l.Downloads != nil && l.Downloads.Artifact != nil && l.Downloads.Artifact.Path != "" {
		return filepath.FromSlash(l.Downloads.Artifact.Path), nil
	}
	return CoordinatePath(l.Name)
}

// Path returns the library's absolute location under root.
func (l Library) Path(root string) (string, error) {
	rel, err := l.RelativePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

// CoordinatePath turns group:artifact:version[:classifier] into
// group/as/path/artifact/version/artifact-version[-classifier].jar.
func CoordinatePath(coordinate string) (string, error) {
	parts := strings.Split(coordinate, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return "", fmt.Errorf("invalid library coordinate %q", coordinate)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid library coordinate %q", coordinate)
		}
	}

	group, artifact, version := parts[0], parts[1], parts[2]
	file := artifact + "-" + version
	if len(parts) == 4 {
		file += "-" + parts[3]
	}
	file += ".jar"

	segments := append(strings.Split(group, "."), artifact, version, file)
	return filepath.Join(segments...), nil
}
