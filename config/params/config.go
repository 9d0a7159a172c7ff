// Package params defines the resource limits and tunables shared by the
// light-client verification core and the keeper that hosts it.
package params

import (
	"time"
)

// LightClientConfig contains the limits applied to untrusted client messages
// before any hashing or signature work is done, and keeper tunables.
type LightClientConfig struct {
	ConfigName string `yaml:"CONFIG_NAME"`

	// Verification limits.
	MaxMmrLeafCount     uint64 `yaml:"MAX_MMR_LEAF_COUNT"`     // MaxMmrLeafCount bounds the leaf count claimed by an MMR proof.
	MaxMmrProofItems    uint64 `yaml:"MAX_MMR_PROOF_ITEMS"`    // MaxMmrProofItems bounds the number of MMR proof items.
	MaxAuthorities      uint64 `yaml:"MAX_AUTHORITIES"`        // MaxAuthorities bounds authority set lengths and signature lists.
	MaxParachainHeaders uint64 `yaml:"MAX_PARACHAIN_HEADERS"`  // MaxParachainHeaders bounds headers per update.
	MaxUnknownHeaders   uint64 `yaml:"MAX_UNKNOWN_HEADERS"`    // MaxUnknownHeaders bounds relay headers in a GRANDPA finality proof.
	MaxVoteAncestries   uint64 `yaml:"MAX_VOTE_ANCESTRIES"`    // MaxVoteAncestries bounds headers in a GRANDPA justification.
	MaxEquivocations    uint64 `yaml:"MAX_EQUIVOCATIONS"`      // MaxEquivocations bounds equivocations per misbehaviour report.
	MaxProofNodes       uint64 `yaml:"MAX_PROOF_NODES"`        // MaxProofNodes bounds nodes in a storage proof.
	MaxMerkleProofItems uint64 `yaml:"MAX_MERKLE_PROOF_ITEMS"` // MaxMerkleProofItems bounds binary Merkle proof items.

	// Keeper settings.
	MaxClockDrift        time.Duration `yaml:"MAX_CLOCK_DRIFT"`         // MaxClockDrift is the tolerated future skew of consensus timestamps.
	ClientStateCacheSize int           `yaml:"CLIENT_STATE_CACHE_SIZE"` // ClientStateCacheSize is the number of client states kept in memory.
}

// DefaultConfig returns the limits used when no configuration file is given.
func DefaultConfig() *LightClientConfig {
	return &LightClientConfig{
		ConfigName:           "default",
		MaxMmrLeafCount:      1 << 32,
		MaxMmrProofItems:     512,
		MaxAuthorities:       4096,
		MaxParachainHeaders:  256,
		MaxUnknownHeaders:    8192,
		MaxVoteAncestries:    8192,
		MaxEquivocations:     1024,
		MaxProofNodes:        256,
		MaxMerkleProofItems:  512,
		MaxClockDrift:        10 * time.Minute,
		ClientStateCacheSize: 128,
	}
}

// MinimalConfig returns tight limits suitable for tests.
func MinimalConfig() *LightClientConfig {
	cfg := DefaultConfig()
	cfg.ConfigName = "minimal"
	cfg.MaxAuthorities = 64
	cfg.MaxParachainHeaders = 16
	cfg.MaxUnknownHeaders = 64
	cfg.MaxVoteAncestries = 64
	cfg.MaxEquivocations = 16
	cfg.MaxProofNodes = 64
	cfg.ClientStateCacheSize = 4
	return cfg
}
