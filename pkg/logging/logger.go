package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Prefix marks every human-readable log line.
const Prefix = "⛏️  "

// Options select the logger's level and encoding.
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	// Add prefix for non-JSON output
	if !opts.JSON {
		output = NewPrefixWriter(Prefix, output)
	}

	level := opts.Level
	if level == "" {
		level = DefaultLevel
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: opts.JSON,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// OpenOutput returns stderr, or path opened for appending when path is set.
// The returned close func is always safe to call.
func OpenOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
