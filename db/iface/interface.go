// Package iface defines the database interface used by the light client
// keeper, also containing a scoped ReadOnlyDatabase.
package iface

import (
	"context"
	"io"

	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

// ReadOnlyDatabase defines a struct which only has read access to database methods.
type ReadOnlyDatabase interface {
	// ClientState returns nil, nil for unknown clients.
	ClientState(ctx context.Context, clientID string) (client.ClientState, error)
	// ConsensusState returns nil, nil when no state is stored at height.
	ConsensusState(ctx context.Context, clientID string, height primitives.Height) (*primitives.ConsensusState, error)
	HasConsensusState(ctx context.Context, clientID string, height primitives.Height) bool
	// ConsensusHeights lists the stored heights of a client in ascending order.
	ConsensusHeights(ctx context.Context, clientID string) ([]primitives.Height, error)
	ClientIDs(ctx context.Context) ([]string, error)
	DatabasePath() string
}

// Database interface with full access.
type Database interface {
	io.Closer
	ReadOnlyDatabase

	SaveClientState(ctx context.Context, clientID string, cs client.ClientState) error
	// SaveUpdate stores a client state together with its new consensus
	// states in a single transaction.
	SaveUpdate(ctx context.Context, clientID string, cs client.ClientState, updates []primitives.ConsensusUpdate) error
	// NextClientSequence returns a fresh sequence number, starting at 0.
	NextClientSequence(ctx context.Context) (uint64, error)
	ClearDB() error
}
