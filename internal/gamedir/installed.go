package gamedir

import (
	"errors"
	"os"
	"sort"
)

// IsInstalled reports whether id has a metadata document on disk.
func (l Layout) IsInstalled(id string) bool {
	info, err := os.Stat(l.VersionJSON(id))
	return err == nil && info.Mode().IsRegular()
}

// InstalledVersions lists version IDs with a metadata document, sorted.
// A missing versions directory yields an empty list.
func (l Layout) InstalledVersions() ([]string, error) {
	entries, err := os.ReadDir(l.Versions())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && l.IsInstalled(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
