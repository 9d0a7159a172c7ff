package keeper

import (
	"math"
	"testing"
	"time"

	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestCheckClockDrift_TimestampBeyondInt64(t *testing.T) {
	hook := logTest.NewGlobal()
	k := &Keeper{
		cfg:   params.MinimalConfig(),
		clock: func() time.Time { return time.Unix(1_690_000_000, 0) },
	}
	k.checkClockDrift("07-grandpa-0", []primitives.ConsensusUpdate{{
		Height:         primitives.NewHeight(2000, 7),
		ConsensusState: primitives.ConsensusState{Timestamp: math.MaxUint64},
	}})
	require.LogsContain(t, hook, "ahead of local clock")

	hook.Reset()
	k.checkClockDrift("07-grandpa-0", []primitives.ConsensusUpdate{{
		Height:         primitives.NewHeight(2000, 7),
		ConsensusState: primitives.ConsensusState{Timestamp: 1_690_000_000_000_000_000},
	}})
	require.LogsDoNotContain(t, hook, "ahead of local clock")
}
