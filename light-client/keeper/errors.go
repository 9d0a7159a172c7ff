package keeper

import "errors"

var (
	// ErrClientNotFound is returned for unknown client ids.
	ErrClientNotFound = errors.New("client not found")
	// ErrClientExists is returned when creating a client under a used id.
	ErrClientExists = errors.New("client already exists")
	// ErrConsensusStateNotFound is returned when no consensus state is stored at a height.
	ErrConsensusStateNotFound = errors.New("consensus state not found")
	errNilDatabase            = errors.New("nil database")
)
