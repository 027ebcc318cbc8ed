package supervisor

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
	"github.com/provide-io/craftlaunch/pkg/launch/rules"
)

// Verify checks that every classpath entry, the profile directory and the
// assets directory exist. With checksum verification on, libraries that
// declare a SHA-1 must also match it. It stops at the first failure.
func (s *Supervisor) Verify(p *Plan) error {
	paths := make([]string, 0, len(p.Classpath)+2)
	paths = append(paths, p.Classpath...)
	paths = append(paths, p.ProfileDir, s.layout.Assets())

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			s.logger.Debug("🔍 Missing file", "path", path, "error", err)
			return &launcherrors.VerificationError{Path: path}
		}
	}

	if !s.verifyChecksums {
		return nil
	}
	for _, lib := range p.Metadata.Libraries {
		if lib.Downloads == nil || lib.Downloads.Artifact == nil || lib.Downloads.Artifact.SHA1 == "" {
			continue
		}
		if len(lib.Rules) > 0 && !rules.IsAllowed(lib.Rules, p.Environment) {
			continue
		}
		path, err := lib.Path(s.layout.Libraries())
		if err != nil {
			return &launcherrors.VerificationError{Path: lib.Name, Reason: err.Error()}
		}
		if err := verifySHA1(path, lib.Downloads.Artifact.SHA1); err != nil {
			s.logger.Warn("❌ Checksum mismatch", "path", path, "error", err)
			return &launcherrors.VerificationError{Path: path, Reason: err.Error()}
		}
	}
	s.logger.Debug("✅ Library checksums verified")
	return nil
}

func verifySHA1(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("sha1 mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}
