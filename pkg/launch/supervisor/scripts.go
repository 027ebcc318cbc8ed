package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
	"github.com/provide-io/craftlaunch/pkg/utils/permissions"
)

const scriptPrefix = "launch-"

// writeScript stores body in a fresh file named launch-<launcher pid>-*<ext>
// under dir with the configured mode.
func (s *Supervisor) writeScript(body string) (string, error) {
	fail := func(format string, args ...any) (string, error) {
		return "", &launcherrors.CannotCreateExecutableError{Reason: fmt.Sprintf(format, args...)}
	}

	if err := os.MkdirAll(s.scriptDir, permissions.DefaultDirMode); err != nil {
		return fail("create script directory: %v", err)
	}

	pattern := fmt.Sprintf("%s%d-*%s", scriptPrefix, os.Getpid(), s.dialect.Extension())
	f, err := os.CreateTemp(s.scriptDir, pattern)
	if err != nil {
		return fail("create script: %v", err)
	}
	path := f.Name()

	if _, err := f.WriteString(body); err != nil {
		f.Close()
		os.Remove(path)
		return fail("write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fail("write %s: %v", path, err)
	}
	if err := os.Chmod(path, s.scriptMode); err != nil {
		os.Remove(path)
		return fail("chmod %s: %v", path, err)
	}

	s.logger.Debug("📝 Wrote launch script", "path", path, "mode", s.scriptMode)
	return path, nil
}

func (s *Supervisor) removeScript(path string) {
	if s.keepScripts {
		s.logger.Debug("📝 Keeping launch script", "path", path)
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("⚠️ Failed to remove launch script", "path", path, "error", err)
	}
}

// scriptOwner extracts the launcher PID from a script file name.
func scriptOwner(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, scriptPrefix)
	if !ok {
		return 0, false
	}
	pidText, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}
	pid, err := strconv.Atoi(pidText)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// CleanupStaleScripts removes launch scripts left in dir by launcher
// processes that are no longer running. It returns how many were removed.
func CleanupStaleScripts(dir string, logger hclog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	self := os.Getpid()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pid, ok := scriptOwner(entry.Name())
		if !ok || pid == self || IsProcessRunning(pid) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		logger.Info("🧹 Removing stale launch script", "path", path, "pid", pid)
		if err := os.Remove(path); err != nil {
			logger.Debug("⚠️ Failed to remove stale script", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
