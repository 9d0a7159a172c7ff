package util

import (
	"testing"

	"github.com/ComposableFi/composable-sub011/container/patricia"
	"github.com/ComposableFi/composable-sub011/crypto/hash"
	"github.com/ComposableFi/composable-sub011/encoding/bytesutil"
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/ComposableFi/composable-sub011/testing/require"
)

// TimestampPalletIndex is the pallet index used for generated timestamp calls.
const TimestampPalletIndex = 3

// TimestampExtrinsic encodes an unsigned Timestamp::set(millis) extrinsic.
func TimestampExtrinsic(millis uint64) []byte {
	body := &scaleutil.Writer{}
	body.WriteRaw([]byte{0x04, TimestampPalletIndex, 0x00})
	body.WriteCompact(millis)
	b, err := body.Bytes()
	if err != nil {
		panic(err)
	}
	out := &scaleutil.Writer{}
	out.WriteBytes(b)
	enc, err := out.Bytes()
	if err != nil {
		panic(err)
	}
	return enc
}

// ParachainBlock is a parachain header with its timestamp extrinsic proof.
type ParachainBlock struct {
	Header         *primitives.Header
	Encoded        []byte
	Extrinsic      []byte
	ExtrinsicProof [][]byte
}

// NewParachainBlock builds a parachain block whose first extrinsic sets the
// timestamp to millis. A zero millis builds a block without extrinsics.
func NewParachainBlock(t testing.TB, number uint32, stateRoot primitives.Hash, millis uint64) *ParachainBlock {
	kv := make(map[string][]byte)
	var ext []byte
	if millis > 0 {
		ext = TimestampExtrinsic(millis)
		kv[string(scaleutil.EncodeCompact(0))] = ext
		kv[string(scaleutil.EncodeCompact(1))] = []byte{0x14, 0x04, 0x07, 0x01, 0x02, 0x03}
	}
	trie, err := patricia.Build(hash.Blake2b256, kv)
	require.NoError(t, err)
	var proof [][]byte
	if ext != nil {
		proof, err = trie.Prove(scaleutil.EncodeCompact(0))
		require.NoError(t, err)
	}
	header := &primitives.Header{
		ParentHash:     hash.Blake2b256(bytesutil.Bytes4(uint64(number))),
		Number:         number,
		StateRoot:      stateRoot,
		ExtrinsicsRoot: trie.Root(),
		Digest: []primitives.DigestItem{{
			Kind:   primitives.DigestPreRuntime,
			Engine: primitives.AuraEngineID,
			Data:   bytesutil.Bytes8(uint64(number)),
		}},
	}
	enc, err := header.Encode()
	require.NoError(t, err)
	return &ParachainBlock{Header: header, Encoded: enc, Extrinsic: ext, ExtrinsicProof: proof}
}

// RelayState is a relay-chain state trie holding parachain heads.
type RelayState struct {
	trie *patricia.Trie
}

// NewRelayState builds a relay state holding the given encoded heads.
func NewRelayState(t testing.TB, heads map[uint32][]byte) *RelayState {
	h := host.Default()
	kv := make(map[string][]byte)
	for id, head := range heads {
		kv[string(parachain.ParasHeadsStorageKey(h, id))] = scaleutil.MustMarshal(head)
	}
	system := h.Twox128([]byte("System"))
	number := h.Twox128([]byte("Number"))
	kv[string(append(system[:], number[:]...))] = bytesutil.Bytes4(uint64(len(heads)))
	trie, err := patricia.Build(hash.Blake2b256, kv)
	require.NoError(t, err)
	return &RelayState{trie: trie}
}

// Root of the relay state.
func (s *RelayState) Root() primitives.Hash {
	return s.trie.Root()
}

// HeadProof proves the head of paraID, or its absence.
func (s *RelayState) HeadProof(t testing.TB, paraID uint32) [][]byte {
	proof, err := s.trie.Prove(parachain.ParasHeadsStorageKey(host.Default(), paraID))
	require.NoError(t, err)
	return proof
}

// HeaderProofs bundles the proofs a GRANDPA update carries for block.
func (s *RelayState) HeaderProofs(t testing.TB, paraID uint32, block *ParachainBlock) *parachain.HeaderProofs {
	return &parachain.HeaderProofs{
		StateProof:     s.HeadProof(t, paraID),
		Extrinsic:      block.Extrinsic,
		ExtrinsicProof: block.ExtrinsicProof,
	}
}
