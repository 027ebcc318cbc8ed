package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
)

func TestResolveRuntime(t *testing.T) {
	locator := NewStaticRuntimeLocator([]Runtime{
		{Name: "java17", Path: "/opt/java17/bin/java", Major: 17},
		{Name: "java21", Path: "/opt/java21/bin/java", Major: 21},
	})

	testCases := []struct {
		name      string
		selection string
		expected  int
		want      string
		actual    int
	}{
		{name: "auto exact", selection: "auto", expected: 17, want: "java17"},
		{name: "empty is auto", selection: "", expected: 21, want: "java21"},
		{name: "auto without exact match", selection: "auto", expected: 8, actual: 21},
		{name: "named newer is fine", selection: "java21", expected: 17, want: "java21"},
		{name: "named too old", selection: "java17", expected: 21, actual: 17},
		{name: "named unknown", selection: "java11", expected: 8, actual: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rt, err := locator.ResolveRuntime(tc.selection, tc.expected)
			if tc.want != "" {
				require.NoError(t, err)
				assert.Equal(t, tc.want, rt.Name)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, launcherrors.ErrNoValidRuntime))
			var runtimeErr *launcherrors.NoValidRuntimeError
			require.True(t, errors.As(err, &runtimeErr))
			assert.Equal(t, tc.expected, runtimeErr.Expected)
			assert.Equal(t, tc.actual, runtimeErr.Actual)
		})
	}
}
