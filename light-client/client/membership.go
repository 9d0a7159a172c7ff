package client

import (
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Storage paths committed to by a chain scheduling a client upgrade.
var (
	ClientStateUpgradePath    = []byte("client-state-upgrade-path")
	ConsensusStateUpgradePath = []byte("consensus-state-upgrade-path")
)

// VerifyMembership checks that prefix||path maps to value in the parachain
// state at height. proof is a SCALE encoded list of trie nodes.
func (d *ClientDef) VerifyMembership(
	cs ClientState,
	height primitives.Height,
	cons *primitives.ConsensusState,
	prefix, proof, path, value []byte,
) error {
	if value == nil {
		return primitives.Malformedf("membership proof without a value")
	}
	return d.verifyStorage(cs, height, cons, prefix, proof, path, value)
}

// VerifyNonMembership checks that prefix||path is absent from the parachain
// state at height.
func (d *ClientDef) VerifyNonMembership(
	cs ClientState,
	height primitives.Height,
	cons *primitives.ConsensusState,
	prefix, proof, path []byte,
) error {
	return d.verifyStorage(cs, height, cons, prefix, proof, path, nil)
}

func (d *ClientDef) verifyStorage(
	cs ClientState,
	height primitives.Height,
	cons *primitives.ConsensusState,
	prefix, proof, path, value []byte,
) error {
	if err := cs.VerifyHeight(height); err != nil {
		return err
	}
	if cons == nil {
		return primitives.Malformedf("no consensus state at %s", height)
	}
	nodes, err := d.DecodeStorageProof(proof)
	if err != nil {
		return err
	}
	key := make([]byte, 0, len(prefix)+len(path))
	key = append(key, prefix...)
	key = append(key, path...)
	if err := d.host.VerifyTrieProof(cons.Root, nodes, key, value); err != nil {
		return errors.Wrapf(primitives.ErrProofFailure, "key %#x at %s: %v", key, height, err)
	}
	return nil
}

// DecodeStorageProof decodes a SCALE Vec<Vec<u8>> of trie nodes.
func (d *ClientDef) DecodeStorageProof(proof []byte) ([][]byte, error) {
	r := scaleutil.NewReader(proof)
	n, err := r.ReadLength(1)
	if err != nil {
		return nil, primitives.Malformedf("storage proof: %v", err)
	}
	if uint64(n) > d.cfg.MaxProofNodes {
		return nil, primitives.LimitExceeded("proof nodes", uint64(n), d.cfg.MaxProofNodes)
	}
	nodes := make([][]byte, n)
	for i := range nodes {
		if nodes[i], err = r.ReadBytes(); err != nil {
			return nil, primitives.Malformedf("storage proof node %d: %v", i, err)
		}
	}
	if err := r.Done(); err != nil {
		return nil, primitives.Malformedf("storage proof: %v", err)
	}
	return nodes, nil
}

// EncodeStorageProof is the inverse of DecodeStorageProof.
func EncodeStorageProof(nodes [][]byte) []byte {
	w := &scaleutil.Writer{}
	w.WriteCompact(uint64(len(nodes)))
	for _, n := range nodes {
		w.WriteBytes(n)
	}
	out, _ := w.Bytes()
	return out
}

// VerifyUpgradeAndUpdateState checks that the chain committed to the
// upgraded client and consensus states in the parachain state root at the
// client's latest height, and returns them as the new trusted states.
func (d *ClientDef) VerifyUpgradeAndUpdateState(
	cs ClientState,
	cons *primitives.ConsensusState,
	upgradedClient ClientState,
	upgradedCons *primitives.ConsensusState,
	proofUpgradeClient, proofUpgradeCons []byte,
) (ClientState, *primitives.ConsensusState, error) {
	if cs.IsFrozen() {
		return nil, nil, errors.Wrapf(ErrClientFrozen, "frozen at %s", cs.FrozenHeight())
	}
	if cons == nil || upgradedCons == nil {
		return nil, nil, errors.Wrap(ErrInvalidUpgrade, "missing consensus state")
	}
	if upgradedClient.ClientType() != cs.ClientType() {
		return nil, nil, errors.Wrapf(ErrInvalidUpgrade, "cannot upgrade %s client to %s", cs.ClientType(), upgradedClient.ClientType())
	}
	if upgradedClient.IsFrozen() {
		return nil, nil, errors.Wrap(ErrInvalidUpgrade, "upgraded client is frozen")
	}
	if upgradedClient.LatestHeight().LT(cs.LatestHeight()) {
		return nil, nil, errors.Wrapf(ErrInvalidUpgrade, "upgraded height %s below latest %s", upgradedClient.LatestHeight(), cs.LatestHeight())
	}
	if err := upgradedClient.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "upgraded client state")
	}

	encodedClient, err := EncodeClientState(upgradedClient)
	if err != nil {
		return nil, nil, err
	}
	if err := d.verifyUpgradeProof(cons, proofUpgradeClient, ClientStateUpgradePath, encodedClient); err != nil {
		return nil, nil, errors.Wrap(err, "client state upgrade proof")
	}
	if err := d.verifyUpgradeProof(cons, proofUpgradeCons, ConsensusStateUpgradePath, EncodeConsensusState(upgradedCons)); err != nil {
		return nil, nil, errors.Wrap(err, "consensus state upgrade proof")
	}
	log.WithFields(logrus.Fields{
		"clientType": cs.ClientType(),
		"from":       cs.LatestHeight(),
		"to":         upgradedClient.LatestHeight(),
	}).Debug("Verified client upgrade")
	out := *upgradedCons
	return upgradedClient, &out, nil
}

func (d *ClientDef) verifyUpgradeProof(cons *primitives.ConsensusState, proof, key, value []byte) error {
	nodes, err := d.DecodeStorageProof(proof)
	if err != nil {
		return err
	}
	if err := d.host.VerifyTrieProof(cons.Root, nodes, key, value); err != nil {
		return errors.Wrapf(primitives.ErrProofFailure, "%s: %v", key, err)
	}
	return nil
}
