package compose

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/utils/shellparse"
)

// Priority is the scheduling priority requested for the game process.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityLow
	PriorityBelowNormal
	PriorityAboveNormal
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityNormal:      "normal",
	PriorityLow:         "low",
	PriorityBelowNormal: "below_normal",
	PriorityAboveNormal: "above_normal",
	PriorityHigh:        "high",
}

// ParsePriority accepts the names produced by Priority.String. Empty means normal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	key := strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for p, name := range priorityNames {
		if name == key {
			return p, nil
		}
	}
	return PriorityNormal, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Offset is the nice(1) increment for p.
func (p Priority) Offset() int {
	switch p {
	case PriorityLow:
		return 19
	case PriorityBelowNormal:
		return 10
	case PriorityAboveNormal:
		return -5
	case PriorityHigh:
		return -10
	default:
		return 0
	}
}

func (p Priority) windowsClass() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityBelowNormal:
		return "belownormal"
	case PriorityAboveNormal:
		return "abovenormal"
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

// Dialect selects the script language.
type Dialect int

const (
	DialectPOSIX Dialect = iota
	DialectWindows
)

// HostDialect returns the dialect for the running OS.
func HostDialect() Dialect {
	if runtime.GOOS == "windows" {
		return DialectWindows
	}
	return DialectPOSIX
}

// Extension is the file suffix scripts of this dialect are written with.
func (d Dialect) Extension() string {
	if d == DialectWindows {
		return ".bat"
	}
	return ".sh"
}

// Quote double-quotes tok for the dialect, escaping what the interpreter
// would otherwise expand. Tokens that are already quoted are kept.
func (d Dialect) Quote(tok string) string {
	if isQuoted(tok) {
		return tok
	}
	if d == DialectWindows {
		return shellparse.QuoteWindows(tok)
	}
	return shellparse.Quote(tok)
}

// Join quotes every token and joins them with spaces.
func (d Dialect) Join(tokens []string) string {
	return shellparse.Join(tokens, d.Quote)
}

// ScriptSpec is the input to BuildScript. JVMArgs and GameArgs are already
// quoted for Dialect.
type ScriptSpec struct {
	ProfileDir  string
	Interpreter string
	JVMArgs     string
	MainClass   string
	GameArgs    string
	Priority    Priority
	Dialect     Dialect
}

// BuildScript renders the launch script: change into the profile directory,
// then run the interpreter with JVM arguments, main class and game arguments.
// It touches nothing on disk.
func BuildScript(spec ScriptSpec) string {
	d := spec.Dialect
	invocation := joinNonEmpty(d.Quote(spec.Interpreter), spec.JVMArgs, spec.MainClass, spec.GameArgs)

	var b strings.Builder
	switch d {
	case DialectWindows:
		b.WriteString("@echo off\r\n")
		fmt.Fprintf(&b, "cd /d %s\r\n", d.Quote(spec.ProfileDir))
		if spec.Priority != PriorityNormal {
			invocation = fmt.Sprintf(`start "" /b /wait /%s %s`, spec.Priority.windowsClass(), invocation)
		}
		b.WriteString(invocation)
		b.WriteString("\r\n")
	default:
		b.WriteString("#!/bin/sh\n")
		fmt.Fprintf(&b, "cd %s || exit 1\n", d.Quote(spec.ProfileDir))
		if spec.Priority != PriorityNormal {
			invocation = fmt.Sprintf("nice -n %d %s", spec.Priority.Offset(), invocation)
		}
		b.WriteString("exec ")
		b.WriteString(invocation)
		b.WriteString("\n")
	}
	return b.String()
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
