package client

import (
	"fmt"

	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

var (
	// ErrClientFrozen is returned for any update of a frozen client.
	ErrClientFrozen = fmt.Errorf("%w: client is frozen", primitives.ErrFrozen)
	// ErrMessageMismatch is returned when a message does not belong to the client type.
	ErrMessageMismatch = fmt.Errorf("%w: message does not match client type", primitives.ErrMalformedMessage)
	// ErrInsufficientHeight is returned when a proof height is above the latest known height.
	ErrInsufficientHeight = fmt.Errorf("%w: insufficient height", primitives.ErrMalformedMessage)
	// ErrConflictingConsensusState marks an update carrying two consensus
	// states for one height.
	ErrConflictingConsensusState = fmt.Errorf("%w: conflicting consensus states", primitives.ErrMisbehaviourDetected)
	// ErrInvalidUpgrade is returned when an upgraded state does not follow the current one.
	ErrInvalidUpgrade = fmt.Errorf("%w: invalid upgrade", primitives.ErrMalformedMessage)
)
