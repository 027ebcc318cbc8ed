package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
)

// Resolver loads version documents from a versions directory laid out as
// <versionsDir>/<id>/<id>.json and follows inheritsFrom references.
type Resolver struct {
	versionsDir string
	logger      hclog.Logger
}

// NewResolver returns a resolver rooted at versionsDir.
func NewResolver(versionsDir string, logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{versionsDir: versionsDir, logger: logger.Named("metadata")}
}

// VersionPath returns where the document for id is expected.
func (r *Resolver) VersionPath(id string) string {
	return filepath.Join(r.versionsDir, id, id+".json")
}

// ResolveID resolves the document for a version identifier.
func (r *Resolver) ResolveID(id string) (*VersionMetadata, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return r.Resolve(r.VersionPath(id))
}

// checkID keeps version identifiers inside the versions directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: invalid version id %q", launcherrors.ErrMetadataNotFound, id)
	}
	return nil
}

// Resolve loads the document at path and merges it over its ancestors.
// Every failure, including a cyclic inheritsFrom chain, wraps
// ErrMetadataNotFound.
func (r *Resolver) Resolve(path string) (*VersionMetadata, error) {
	var chain []*VersionMetadata
	visited := make(map[string]bool)

	current := filepath.Clean(path)
	for {
		if visited[current] {
			r.logger.Error("❌ Cyclic inheritance", "path", current)
			return nil, fmt.Errorf("%w: cyclic inheritsFrom at %s", launcherrors.ErrMetadataNotFound, current)
		}
		visited[current] = true

		doc, err := r.load(current)
		if err != nil {
			return nil, err
		}
		chain = append(chain, doc)

		if doc.InheritsFrom == "" {
			break
		}
		r.logger.Debug("🔗 Following parent", "id", doc.ID, "parent", doc.InheritsFrom)
		if err := checkID(doc.InheritsFrom); err != nil {
			r.logger.Error("❌ Invalid parent", "id", doc.ID, "parent", doc.InheritsFrom)
			return nil, err
		}
		current = r.VersionPath(doc.InheritsFrom)
	}

	resolved := clone(chain[len(chain)-1])
	for i := len(chain) - 2; i >= 0; i-- {
		resolved = merge(resolved, chain[i])
	}

	if len(resolved.Arguments.Game) == 0 && resolved.MinecraftArguments != "" {
		for _, field := range strings.Fields(resolved.MinecraftArguments) {
			resolved.Arguments.Game = append(resolved.Arguments.Game, Literal(field))
		}
	}

	if !resolved.Launchable() {
		r.logger.Error("❌ Resolved metadata is incomplete", "id", resolved.ID,
			"main_class", resolved.MainClass, "libraries", len(resolved.Libraries))
		return nil, fmt.Errorf("%w: %s has no main class or libraries", launcherrors.ErrMetadataNotFound, resolved.ID)
	}

	r.logger.Debug("✅ Resolved metadata", "id", resolved.ID, "depth", len(chain),
		"libraries", len(resolved.Libraries),
		"jvm_args", len(resolved.Arguments.JVM), "game_args", len(resolved.Arguments.Game))
	return resolved, nil
}

func (r *Resolver) load(path string) (*VersionMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Error("❌ Failed to read metadata", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", launcherrors.ErrMetadataNotFound, err)
	}

	var doc VersionMetadata
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Error("❌ Failed to decode metadata", "path", path, "error", err)
		return nil, fmt.Errorf("%w: decode %s: %v", launcherrors.ErrMetadataNotFound, path, err)
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	r.logger.Trace("📄 Loaded metadata", "path", path, "id", doc.ID, "inherits_from", doc.InheritsFrom)
	return &doc, nil
}

// merge lays child over parent. Scalars set in child win; libraries and
// argument lists are parent first, then child.
func merge(parent, child *VersionMetadata) *VersionMetadata {
	out := clone(parent)
	out.ID = child.ID
	out.Jar = parent.ClientJarID()
	out.InheritsFrom = ""

	if child.Type != "" {
		out.Type = child.Type
	}
	if child.MainClass != "" {
		out.MainClass = child.MainClass
	}
	if child.Jar != "" {
		out.Jar = child.Jar
	}
	if child.Assets != "" {
		out.Assets = child.Assets
	}
	if child.AssetIndex != nil {
		index := *child.AssetIndex
		out.AssetIndex = &index
	}
	if child.JavaVersion != nil {
		java := *child.JavaVersion
		out.JavaVersion = &java
	}
	if child.MinecraftArguments != "" {
		out.MinecraftArguments = child.MinecraftArguments
	}

	out.Libraries = append(out.Libraries, child.Libraries...)
	out.Arguments.JVM = append(out.Arguments.JVM, child.Arguments.JVM...)
	out.Arguments.Game = append(out.Arguments.Game, child.Arguments.Game...)
	return out
}

func clone(m *VersionMetadata) *VersionMetadata {
	out := *m
	out.Libraries = append([]Library(nil), m.Libraries...)
	out.Arguments.JVM = append([]ArgumentTemplate(nil), m.Arguments.JVM...)
	out.Arguments.Game = append([]ArgumentTemplate(nil), m.Arguments.Game...)
	if m.AssetIndex != nil {
		index := *m.AssetIndex
		out.AssetIndex = &index
	}
	if m.JavaVersion != nil {
		java := *m.JavaVersion
		out.JavaVersion = &java
	}
	return &out
}
