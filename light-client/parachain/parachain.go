// Package parachain proves parachain heads out of relay-chain state and
// derives consensus states from them.
package parachain

import (
	"fmt"
	"math"

	"github.com/ComposableFi/composable-sub011/encoding/bytesutil"
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/sirupsen/logrus"
)

const (
	parasPallet  = "Paras"
	headsStorage = "Heads"

	nanosPerMilli = uint64(1_000_000)
)

// HeaderProofs anchor one parachain header in a relay-chain block.
type HeaderProofs struct {
	// StateProof proves Paras::Heads(para_id) in the relay state trie.
	StateProof [][]byte
	// Extrinsic is the encoded timestamp set extrinsic of the parachain block.
	Extrinsic []byte
	// ExtrinsicProof proves Extrinsic at index 0 of the extrinsics trie.
	ExtrinsicProof [][]byte
}

// ParasHeadsStorageKey returns the relay storage key of Paras::Heads(paraID).
func ParasHeadsStorageKey(h host.Functions, paraID uint32) []byte {
	pallet := h.Twox128([]byte(parasPallet))
	item := h.Twox128([]byte(headsStorage))
	id := bytesutil.Bytes4(uint64(paraID))
	idHash := h.Twox64(id)

	key := make([]byte, 0, len(pallet)+len(item)+len(idHash)+len(id))
	key = append(key, pallet[:]...)
	key = append(key, item[:]...)
	key = append(key, idHash[:]...)
	return append(key, id...)
}

// VerifyHeadProof reads the encoded head of paraID out of a relay-chain
// storage proof rooted at relayStateRoot.
func VerifyHeadProof(h host.Functions, relayStateRoot primitives.Hash, paraID uint32, proof [][]byte) ([]byte, error) {
	value, err := h.ReadTrieProof(relayStateRoot, proof, ParasHeadsStorageKey(h, paraID))
	if err != nil {
		return nil, fmt.Errorf("%w: parachain %d head: %v", primitives.ErrProofFailure, paraID, err)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: no head for parachain %d under state root %s", primitives.ErrProofFailure, paraID, relayStateRoot)
	}
	var head []byte
	if err := scaleutil.Unmarshal(value, &head); err != nil {
		return nil, primitives.Malformedf("parachain %d head value: %v", paraID, err)
	}
	return head, nil
}

// DecodeHeader decodes an encoded parachain header.
func DecodeHeader(head []byte) (*primitives.Header, error) {
	return primitives.DecodeHeader(head)
}

// VerifyTimestampExtrinsic proves extrinsic is the first extrinsic of the
// block with the given extrinsics root and returns the timestamp it sets, in
// nanoseconds.
func VerifyTimestampExtrinsic(h host.Functions, extrinsicsRoot primitives.Hash, extrinsic []byte, proof [][]byte) (uint64, error) {
	key := scaleutil.EncodeCompact(0)
	if err := h.VerifyTrieProof(extrinsicsRoot, proof, key, extrinsic); err != nil {
		return 0, fmt.Errorf("%w: timestamp extrinsic: %v", primitives.ErrProofFailure, err)
	}
	return DecodeTimestamp(extrinsic)
}

// DecodeTimestamp extracts the timestamp in nanoseconds from an encoded
// Timestamp::set extrinsic. The length prefix and version byte are skipped,
// then the call is (pallet index, call index, compact milliseconds).
func DecodeTimestamp(extrinsic []byte) (uint64, error) {
	if len(extrinsic) < 2 {
		return 0, primitives.Malformedf("timestamp extrinsic of %d bytes", len(extrinsic))
	}
	r := scaleutil.NewReader(extrinsic[2:])
	if _, err := r.ReadFixed(2); err != nil {
		return 0, primitives.Malformedf("timestamp call index: %v", err)
	}
	millis, err := r.ReadCompact()
	if err != nil {
		return 0, primitives.Malformedf("timestamp value: %v", err)
	}
	if millis == 0 {
		return 0, primitives.Malformedf("zero timestamp")
	}
	if millis > math.MaxUint64/nanosPerMilli {
		return 0, primitives.Malformedf("timestamp %d ms overflows nanoseconds", millis)
	}
	return millis * nanosPerMilli, nil
}

// ConsensusStateFromHeader derives the consensus state of a decoded parachain
// header. The genesis block and headers without a timestamp extrinsic yield
// a nil consensus state and no error.
func ConsensusStateFromHeader(
	h host.Functions,
	paraID uint32,
	header *primitives.Header,
	extrinsic []byte,
	extrinsicProof [][]byte,
) (primitives.Height, *primitives.ConsensusState, error) {
	height := primitives.NewHeight(uint64(paraID), uint64(header.Number))
	if header.Number == 0 || len(extrinsic) == 0 {
		log.WithFields(logrus.Fields{
			"paraID": paraID,
			"number": header.Number,
		}).Debug("Skipping parachain header without timestamp")
		return height, nil, nil
	}
	timestamp, err := VerifyTimestampExtrinsic(h, header.ExtrinsicsRoot, extrinsic, extrinsicProof)
	if err != nil {
		return height, nil, err
	}
	return height, &primitives.ConsensusState{
		Timestamp: timestamp,
		Root:      header.StateRoot,
	}, nil
}

// ConsensusStateFromRelayProof proves the head of paraID in the relay state
// root and derives its consensus state.
func ConsensusStateFromRelayProof(
	h host.Functions,
	paraID uint32,
	relayStateRoot primitives.Hash,
	proofs *HeaderProofs,
) (primitives.Height, *primitives.ConsensusState, error) {
	head, err := VerifyHeadProof(h, relayStateRoot, paraID, proofs.StateProof)
	if err != nil {
		return primitives.Height{}, nil, err
	}
	header, err := DecodeHeader(head)
	if err != nil {
		return primitives.Height{}, nil, err
	}
	return ConsensusStateFromHeader(h, paraID, header, proofs.Extrinsic, proofs.ExtrinsicProof)
}
