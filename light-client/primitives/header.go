package primitives

import (
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/pkg/errors"
)

// DigestItemKind is the SCALE variant index of a digest item.
type DigestItemKind uint8

// Digest item variants.
const (
	DigestOther                     DigestItemKind = 0
	DigestConsensus                 DigestItemKind = 4
	DigestSeal                      DigestItemKind = 5
	DigestPreRuntime                DigestItemKind = 6
	DigestRuntimeEnvironmentUpdated DigestItemKind = 8
)

// ConsensusEngineID identifies the engine a digest item belongs to.
type ConsensusEngineID [4]byte

// Engine ids seen in relay and parachain headers.
var (
	GrandpaEngineID = ConsensusEngineID{'F', 'R', 'N', 'K'}
	BeefyEngineID   = ConsensusEngineID{'B', 'E', 'E', 'F'}
	AuraEngineID    = ConsensusEngineID{'a', 'u', 'r', 'a'}
	BabeEngineID    = ConsensusEngineID{'B', 'A', 'B', 'E'}
)

// DigestItem is one entry of a header digest. Engine is unused for Other and
// RuntimeEnvironmentUpdated; Data is unused for RuntimeEnvironmentUpdated.
type DigestItem struct {
	Kind   DigestItemKind
	Engine ConsensusEngineID
	Data   []byte
}

// Header is a Substrate block header with a u32 block number.
type Header struct {
	ParentHash     Hash
	Number         uint32
	StateRoot      Hash
	ExtrinsicsRoot Hash
	Digest         []DigestItem
}

// Encode returns the SCALE encoding of the header.
func (h *Header) Encode() ([]byte, error) {
	w := &scaleutil.Writer{}
	h.encodeTo(w)
	return w.Bytes()
}

func (h *Header) encodeTo(w *scaleutil.Writer) {
	w.WriteRaw(h.ParentHash[:])
	w.WriteCompact(uint64(h.Number))
	w.WriteRaw(h.StateRoot[:])
	w.WriteRaw(h.ExtrinsicsRoot[:])
	w.WriteCompact(uint64(len(h.Digest)))
	for _, item := range h.Digest {
		_ = w.WriteByte(byte(item.Kind))
		switch item.Kind {
		case DigestOther:
			w.WriteBytes(item.Data)
		case DigestConsensus, DigestSeal, DigestPreRuntime:
			w.WriteRaw(item.Engine[:])
			w.WriteBytes(item.Data)
		}
	}
}

// Hash returns the block hash, BLAKE2b-256 of the encoded header.
func (h *Header) Hash(hasher func([]byte) [32]byte) (Hash, error) {
	enc, err := h.Encode()
	if err != nil {
		return Hash{}, err
	}
	return hasher(enc), nil
}

// DecodeHeader decodes a SCALE encoded header, rejecting trailing bytes.
func DecodeHeader(data []byte) (*Header, error) {
	r := scaleutil.NewReader(data)
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, Malformedf("header: %v", err)
	}
	return h, nil
}

// ReadHeader decodes one header from a stream.
func ReadHeader(r *scaleutil.Reader) (*Header, error) {
	h := &Header{}
	var err error
	if h.ParentHash, err = r.ReadHash(); err != nil {
		return nil, Malformedf("header parent hash: %v", err)
	}
	number, err := r.ReadCompact()
	if err != nil {
		return nil, Malformedf("header number: %v", err)
	}
	if number > uint64(^uint32(0)) {
		return nil, Malformedf("header number %d overflows u32", number)
	}
	h.Number = uint32(number)
	if h.StateRoot, err = r.ReadHash(); err != nil {
		return nil, Malformedf("header state root: %v", err)
	}
	if h.ExtrinsicsRoot, err = r.ReadHash(); err != nil {
		return nil, Malformedf("header extrinsics root: %v", err)
	}
	count, err := r.ReadLength(1)
	if err != nil {
		return nil, Malformedf("header digest length: %v", err)
	}
	h.Digest = make([]DigestItem, 0, count)
	for i := 0; i < count; i++ {
		item, err := readDigestItem(r)
		if err != nil {
			return nil, errors.Wrapf(err, "digest item %d", i)
		}
		h.Digest = append(h.Digest, item)
	}
	return h, nil
}

func readDigestItem(r *scaleutil.Reader) (DigestItem, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return DigestItem{}, Malformedf("digest item tag: %v", err)
	}
	item := DigestItem{Kind: DigestItemKind(tag)}
	switch item.Kind {
	case DigestOther:
		if item.Data, err = r.ReadBytes(); err != nil {
			return DigestItem{}, Malformedf("digest item data: %v", err)
		}
	case DigestConsensus, DigestSeal, DigestPreRuntime:
		engine, err := r.ReadFixed(4)
		if err != nil {
			return DigestItem{}, Malformedf("digest engine id: %v", err)
		}
		copy(item.Engine[:], engine)
		if item.Data, err = r.ReadBytes(); err != nil {
			return DigestItem{}, Malformedf("digest item data: %v", err)
		}
	case DigestRuntimeEnvironmentUpdated:
	default:
		return DigestItem{}, Malformedf("unknown digest item variant %d", tag)
	}
	return item, nil
}

// ConsensusLogs returns the payloads of consensus digest items for engine.
func (h *Header) ConsensusLogs(engine ConsensusEngineID) [][]byte {
	var out [][]byte
	for _, item := range h.Digest {
		if item.Kind == DigestConsensus && item.Engine == engine {
			out = append(out, item.Data)
		}
	}
	return out
}

// WriteHeaders appends a SCALE Vec<Header>.
func WriteHeaders(w *scaleutil.Writer, headers []Header) {
	w.WriteCompact(uint64(len(headers)))
	for i := range headers {
		headers[i].encodeTo(w)
	}
}

// ReadHeaders decodes a SCALE Vec<Header>, bounded by limit when non-zero.
func ReadHeaders(r *scaleutil.Reader, limit uint64) ([]Header, error) {
	// A header is at least 97 bytes: three hashes, a compact and a length.
	count, err := r.ReadLength(97)
	if err != nil {
		return nil, Malformedf("header list length: %v", err)
	}
	if limit > 0 && uint64(count) > limit {
		return nil, LimitExceeded("headers", uint64(count), limit)
	}
	out := make([]Header, 0, count)
	for i := 0; i < count; i++ {
		h, err := ReadHeader(r)
		if err != nil {
			return nil, errors.Wrapf(err, "header %d", i)
		}
		out = append(out, *h)
	}
	return out, nil
}
