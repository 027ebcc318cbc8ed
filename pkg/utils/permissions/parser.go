// Package permissions parses file modes given as octal strings in settings.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default modes (owner-only access).
const (
	DefaultScriptMode os.FileMode = 0o700
	DefaultDirMode    os.FileMode = 0o700
)

// ParseMode parses an octal permission string such as "755", "0755" or
// "0o755". An empty string yields fallback.
func ParseMode(s string, fallback os.FileMode) (os.FileMode, error) {
	if s == "" {
		return fallback, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil || val > 0o777 {
		return fallback, fmt.Errorf("invalid permission string %q", s)
	}
	return os.FileMode(val), nil
}

// Format renders mode as a four-digit octal string.
func Format(mode os.FileMode) string {
	return fmt.Sprintf("%04o", uint32(mode.Perm()))
}

// OwnerExecutable reports whether mode lets the owner execute the file.
func OwnerExecutable(mode os.FileMode) bool {
	return mode&0o100 != 0
}
