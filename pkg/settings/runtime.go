package settings

import (
	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
)

// AutoRuntime asks the locator to pick a runtime by the required major version.
const AutoRuntime = "auto"

// Runtime is a Java installation.
type Runtime struct {
	Name  string `mapstructure:"name"`
	Path  string `mapstructure:"path"`
	Major int    `mapstructure:"major"`
}

// RuntimeLocator maps a profile's runtime selection to an interpreter.
type RuntimeLocator interface {
	ResolveRuntime(selection string, expectedMajor int) (Runtime, error)
}

// StaticRuntimeLocator resolves against a fixed list of runtimes.
type StaticRuntimeLocator struct {
	runtimes []Runtime
}

func NewStaticRuntimeLocator(runtimes []Runtime) *StaticRuntimeLocator {
	return &StaticRuntimeLocator{runtimes: append([]Runtime(nil), runtimes...)}
}

// ResolveRuntime picks the runtime with exactly expectedMajor for an empty or
// "auto" selection. A named selection must be at least expectedMajor.
func (l *StaticRuntimeLocator) ResolveRuntime(selection string, expectedMajor int) (Runtime, error) {
	if selection == "" || selection == AutoRuntime {
		best := 0
		for _, r := range l.runtimes {
			if r.Major == expectedMajor {
				return r, nil
			}
			if r.Major > best {
				best = r.Major
			}
		}
		return Runtime{}, &launcherrors.NoValidRuntimeError{Expected: expectedMajor, Actual: best}
	}

	for _, r := range l.runtimes {
		if r.Name != selection {
			continue
		}
		if r.Major < expectedMajor {
			return Runtime{}, &launcherrors.NoValidRuntimeError{Expected: expectedMajor, Actual: r.Major}
		}
		return r, nil
	}
	return Runtime{}, &launcherrors.NoValidRuntimeError{Expected: expectedMajor}
}
