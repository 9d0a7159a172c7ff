package params

import (
	"testing"
)

// SetupTestConfigCleanup preserves the active config and restores it when
// the test finishes.
func SetupTestConfigCleanup(t testing.TB) {
	prev := LightClient().Copy()
	t.Cleanup(func() {
		OverrideLightClientConfig(prev)
	})
}
