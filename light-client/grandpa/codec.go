package grandpa

import (
	"bytes"
	"sort"

	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/parachain"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/pkg/errors"
)

const (
	signedPrecommitSize = 32 + 4 + 64 + 32
	authoritySize       = 32 + 8
)

// VoteMessage returns the bytes an authority signs for a vote:
// the encoded message variant followed by round and set id.
func VoteMessage(stage Stage, vote Vote, round, setID uint64) []byte {
	w := &scaleutil.Writer{}
	_ = w.WriteByte(byte(stage))
	w.Encode(vote)
	w.Encode(round)
	w.Encode(setID)
	enc, err := w.Bytes()
	if err != nil {
		// Fixed size values always encode.
		panic(err)
	}
	return enc
}

// Encode returns the SCALE encoding of the justification.
func (j *Justification) Encode() ([]byte, error) {
	w := &scaleutil.Writer{}
	w.Encode(j.Round)
	w.WriteRaw(j.Commit.TargetHash[:])
	w.Encode(j.Commit.TargetNumber)
	w.Encode(j.Commit.Precommits)
	primitives.WriteHeaders(w, j.VotesAncestries)
	return w.Bytes()
}

// DecodeJustification decodes a justification within the configured limits.
func DecodeJustification(data []byte) (*Justification, error) {
	cfg := params.LightClient()
	r := scaleutil.NewReader(data)
	j := &Justification{}
	var err error
	if j.Round, err = r.ReadUint64(); err != nil {
		return nil, primitives.Malformedf("justification round: %v", err)
	}
	if j.Commit.TargetHash, err = r.ReadHash(); err != nil {
		return nil, primitives.Malformedf("commit target hash: %v", err)
	}
	if j.Commit.TargetNumber, err = r.ReadUint32(); err != nil {
		return nil, primitives.Malformedf("commit target number: %v", err)
	}
	count, err := r.ReadLength(signedPrecommitSize)
	if err != nil {
		return nil, primitives.Malformedf("precommits length: %v", err)
	}
	if uint64(count) > cfg.MaxAuthorities {
		return nil, primitives.LimitExceeded("precommits", uint64(count), cfg.MaxAuthorities)
	}
	j.Commit.Precommits = make([]SignedPrecommit, count)
	for i := range j.Commit.Precommits {
		if err := r.Decode(signedPrecommitSize, &j.Commit.Precommits[i]); err != nil {
			return nil, primitives.Malformedf("precommit %d: %v", i, err)
		}
	}
	if j.VotesAncestries, err = primitives.ReadHeaders(r, cfg.MaxVoteAncestries); err != nil {
		return nil, errors.Wrap(err, "votes ancestries")
	}
	if err := r.Done(); err != nil {
		return nil, primitives.Malformedf("justification: %v", err)
	}
	return j, nil
}

// Encode returns the SCALE encoding of the finality proof.
func (f *FinalityProof) Encode() ([]byte, error) {
	w := &scaleutil.Writer{}
	f.encodeTo(w)
	return w.Bytes()
}

func (f *FinalityProof) encodeTo(w *scaleutil.Writer) {
	w.WriteRaw(f.Block[:])
	w.WriteBytes(f.Justification)
	primitives.WriteHeaders(w, f.UnknownHeaders)
}

func readFinalityProof(r *scaleutil.Reader) (*FinalityProof, error) {
	f := &FinalityProof{}
	var err error
	if f.Block, err = r.ReadHash(); err != nil {
		return nil, primitives.Malformedf("finality proof block: %v", err)
	}
	if f.Justification, err = r.ReadBytes(); err != nil {
		return nil, primitives.Malformedf("finality proof justification: %v", err)
	}
	if f.UnknownHeaders, err = primitives.ReadHeaders(r, params.LightClient().MaxUnknownHeaders); err != nil {
		return nil, errors.Wrap(err, "unknown headers")
	}
	return f, nil
}

// DecodeFinalityProof decodes a finality proof within the configured limits.
func DecodeFinalityProof(data []byte) (*FinalityProof, error) {
	r := scaleutil.NewReader(data)
	f, err := readFinalityProof(r)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, primitives.Malformedf("finality proof: %v", err)
	}
	return f, nil
}

// SortedRelayHashes returns the keys of headers in ascending order.
func SortedRelayHashes(headers map[primitives.Hash]*parachain.HeaderProofs) []primitives.Hash {
	keys := make([]primitives.Hash, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}

// EncodeTo appends the proof followed by the parachain headers as a
// sequence of (relay hash, proofs) pairs sorted by relay hash.
func (p *ParachainHeadersWithFinalityProof) EncodeTo(w *scaleutil.Writer) {
	p.FinalityProof.encodeTo(w)
	WriteParachainHeaders(w, p.ParachainHeaders)
}

// Encode returns the SCALE encoding of p.
func (p *ParachainHeadersWithFinalityProof) Encode() ([]byte, error) {
	w := &scaleutil.Writer{}
	p.EncodeTo(w)
	return w.Bytes()
}

// ReadParachainHeadersWithFinalityProof decodes the output of EncodeTo.
func ReadParachainHeadersWithFinalityProof(r *scaleutil.Reader) (*ParachainHeadersWithFinalityProof, error) {
	f, err := readFinalityProof(r)
	if err != nil {
		return nil, err
	}
	headers, err := ReadParachainHeaders(r)
	if err != nil {
		return nil, err
	}
	return &ParachainHeadersWithFinalityProof{FinalityProof: *f, ParachainHeaders: headers}, nil
}

// WriteParachainHeaders appends headers as a sorted sequence of pairs.
func WriteParachainHeaders(w *scaleutil.Writer, headers map[primitives.Hash]*parachain.HeaderProofs) {
	keys := SortedRelayHashes(headers)
	w.WriteCompact(uint64(len(keys)))
	for _, k := range keys {
		w.WriteRaw(k[:])
		w.Encode(*headers[k])
	}
}

// ReadParachainHeaders decodes a sorted sequence of (relay hash, proofs)
// pairs. Keys must be strictly ascending.
func ReadParachainHeaders(r *scaleutil.Reader) (map[primitives.Hash]*parachain.HeaderProofs, error) {
	cfg := params.LightClient()
	// Hash plus three empty vectors.
	count, err := r.ReadLength(32 + 3)
	if err != nil {
		return nil, primitives.Malformedf("parachain headers length: %v", err)
	}
	if uint64(count) > cfg.MaxParachainHeaders {
		return nil, primitives.LimitExceeded("parachain headers", uint64(count), cfg.MaxParachainHeaders)
	}
	out := make(map[primitives.Hash]*parachain.HeaderProofs, count)
	var prev primitives.Hash
	for i := 0; i < count; i++ {
		key, err := r.ReadHash()
		if err != nil {
			return nil, primitives.Malformedf("relay hash %d: %v", i, err)
		}
		if i > 0 && bytes.Compare(prev[:], key[:]) >= 0 {
			return nil, primitives.Malformedf("relay hashes not strictly ascending at %d", i)
		}
		prev = key
		proofs, err := readHeaderProofs(r, cfg.MaxProofNodes)
		if err != nil {
			return nil, errors.Wrapf(err, "parachain header proofs %d", i)
		}
		out[key] = proofs
	}
	return out, nil
}

func readHeaderProofs(r *scaleutil.Reader, maxNodes uint64) (*parachain.HeaderProofs, error) {
	p := &parachain.HeaderProofs{}
	var err error
	if p.StateProof, err = readNodes(r, maxNodes); err != nil {
		return nil, errors.Wrap(err, "state proof")
	}
	if p.Extrinsic, err = r.ReadBytes(); err != nil {
		return nil, primitives.Malformedf("extrinsic: %v", err)
	}
	if p.ExtrinsicProof, err = readNodes(r, maxNodes); err != nil {
		return nil, errors.Wrap(err, "extrinsic proof")
	}
	return p, nil
}

// readNodes decodes a Vec<Vec<u8>> of at most maxNodes entries.
func readNodes(r *scaleutil.Reader, maxNodes uint64) ([][]byte, error) {
	count, err := r.ReadLength(1)
	if err != nil {
		return nil, primitives.Malformedf("node count: %v", err)
	}
	if uint64(count) > maxNodes {
		return nil, primitives.LimitExceeded("proof nodes", uint64(count), maxNodes)
	}
	out := make([][]byte, count)
	for i := range out {
		if out[i], err = r.ReadBytes(); err != nil {
			return nil, primitives.Malformedf("node %d: %v", i, err)
		}
	}
	return out, nil
}

// readAuthorities decodes a Vec<(AuthorityId, u64)>.
func readAuthorities(r *scaleutil.Reader) (AuthorityList, error) {
	count, err := r.ReadLength(authoritySize)
	if err != nil {
		return nil, primitives.Malformedf("authority count: %v", err)
	}
	out := make(AuthorityList, count)
	for i := range out {
		if err := r.Decode(authoritySize, &out[i]); err != nil {
			return nil, primitives.Malformedf("authority %d: %v", i, err)
		}
	}
	return out, nil
}
