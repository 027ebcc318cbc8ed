// Package rules evaluates the allow/deny conditions attached to libraries and
// argument templates in version metadata.
package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"runtime"
)

// Action is what a matching rule does to the verdict.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
)

// UnmarshalJSON rejects unknown actions at decode time.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Action(s) {
	case ActionAllow, ActionDeny:
		*a = Action(s)
		return nil
	default:
		return fmt.Errorf("unknown rule action %q", s)
	}
}

// OS constrains a rule to an operating system and, optionally, an
// architecture. Version is a regular expression matched against the host
// OS version.
type OS struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// Rule is one declarative condition.
type Rule struct {
	Action   Action          `json:"action"`
	OS       *OS             `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// Environment is the host description rules are matched against.
type Environment struct {
	OSName    string
	OSVersion string
	Arch      string
	Features  map[string]bool
}

// CurrentEnvironment describes the running host in metadata vocabulary.
func CurrentEnvironment(features map[string]bool) Environment {
	return Environment{
		OSName:    OSName(runtime.GOOS),
		OSVersion: osVersion(),
		Arch:      Arch(runtime.GOARCH),
		Features:  features,
	}
}

// OSName maps a GOOS value to the name used in version metadata.
func OSName(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	default:
		return goos
	}
}

// Arch maps a GOARCH value to the name used in version metadata.
func Arch(goarch string) string {
	switch goarch {
	case "386":
		return "x86"
	case "amd64":
		return "x86_64"
	case "arm":
		return "arm32"
	default:
		return goarch
	}
}

// IsAllowed reports whether an element guarded by rules is included in env.
//
// An empty list allows. Otherwise the verdict starts denied; every rule whose
// constraints match sets it to its action, and a matching deny ends
// evaluation. Rules whose constraints do not match are skipped.
func IsAllowed(rules []Rule, env Environment) bool {
	allowed := len(rules) == 0
	for _, rule := range rules {
		if !rule.matches(env) {
			continue
		}
		if rule.Action == ActionDeny {
			return false
		}
		allowed = true
	}
	return allowed
}

func (r Rule) matches(env Environment) bool {
	if r.OS != nil {
		if r.OS.Name != "" && r.OS.Name != env.OSName {
			return false
		}
		if r.OS.Arch != "" && r.OS.Arch != env.Arch {
			return false
		}
		if r.OS.Version != "" && !matchVersion(r.OS.Version, env.OSVersion) {
			return false
		}
	}
	for name, required := range r.Features {
		have, ok := env.Features[name]
		if !ok || have != required {
			return false
		}
	}
	return true
}

// matchVersion treats an unknown host version or a bad pattern as no match.
func matchVersion(pattern, version string) bool {
	if version == "" {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(version)
}
