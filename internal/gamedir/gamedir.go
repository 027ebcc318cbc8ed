// Package gamedir describes the on-disk layout of a launcher data directory
package gamedir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/provide-io/craftlaunch/pkg/utils/permissions"
)

// Layout resolves paths under a data root:
//
//	<root>/versions/<id>/<id>.json
//	<root>/versions/<id>/<id>.jar
//	<root>/versions/<id>/natives
//	<root>/libraries
//	<root>/assets
//	<root>/profiles/<name>
//	<root>/scripts
type Layout struct {
	Root string
}

// New returns the layout rooted at root.
func New(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) Versions() string {
	return filepath.Join(l.Root, "versions")
}

func (l Layout) VersionDir(id string) string {
	return filepath.Join(l.Versions(), id)
}

func (l Layout) VersionJSON(id string) string {
	return filepath.Join(l.VersionDir(id), id+".json")
}

func (l Layout) ClientJar(id string) string {
	return filepath.Join(l.VersionDir(id), id+".jar")
}

func (l Layout) Natives(id string) string {
	return filepath.Join(l.VersionDir(id), "natives")
}

func (l Layout) Libraries() string {
	return filepath.Join(l.Root, "libraries")
}

func (l Layout) Assets() string {
	return filepath.Join(l.Root, "assets")
}

// ProfileDir is the working directory of a game profile.
func (l Layout) ProfileDir(name string) string {
	return filepath.Join(l.Root, "profiles", name)
}

// Scripts holds generated launch scripts.
func (l Layout) Scripts() string {
	return filepath.Join(l.Root, "scripts")
}

// DataRoot returns override when set, otherwise the platform data directory.
func DataRoot(override string) string {
	if override != "" {
		return override
	}

	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", "craftlaunch")
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "craftlaunch")
		}
	default:
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "craftlaunch")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".local", "share", "craftlaunch")
		}
	}

	return filepath.Join(os.TempDir(), "craftlaunch")
}

// DirectorySpec is a directory EnsureDirs creates, relative to the root.
type DirectorySpec struct {
	Path string
	Mode os.FileMode
}

// DefaultDirectories are the directories every data root has.
var DefaultDirectories = []DirectorySpec{
	{Path: "versions"},
	{Path: "libraries"},
	{Path: "assets"},
	{Path: "profiles"},
	{Path: "scripts", Mode: permissions.DefaultDirMode},
}

// EnsureDirs creates the root and dirs below it. A zero Mode means 0755.
func (l Layout) EnsureDirs(dirs ...DirectorySpec) error {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create data root: %w", err)
	}

	for _, dir := range dirs {
		mode := dir.Mode
		if mode == 0 {
			mode = 0o755
		}
		if err := os.MkdirAll(filepath.Join(l.Root, dir.Path), mode); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}
	return nil
}
