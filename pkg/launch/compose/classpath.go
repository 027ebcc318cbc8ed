// Package compose turns resolved version metadata into the pieces of a launch
// command line: classpath, argument strings and the launch script.
package compose

import (
	"fmt"
	"os"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/launch/metadata"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
)

// Classpath lists the archives for meta in metadata order, skipping libraries
// whose rules deny env, and ends with clientJar. Duplicates are kept.
func Classpath(meta *metadata.VersionMetadata, libraryRoot, clientJar string, env rules.Environment) ([]string, error) {
	paths := make([]string, 0, len(meta.Libraries)+1)
	for _, lib := range meta.Libraries {
		if len(lib.Rules) > 0 && !rules.IsAllowed(lib.Rules, env) {
			continue
		}
		path, err := lib.Path(libraryRoot)
		if err != nil {
			return nil, fmt.Errorf("classpath: %w", err)
		}
		paths = append(paths, path)
	}
	return append(paths, clientJar), nil
}

// JoinClasspath joins entries with the host path-list separator.
func JoinClasspath(paths []string) string {
	return strings.Join(paths, string(os.PathListSeparator))
}
