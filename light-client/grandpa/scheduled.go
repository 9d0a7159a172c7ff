package grandpa

import (
	"github.com/ComposableFi/composable-sub011/encoding/scaleutil"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
)

// Consensus log variants under the GRANDPA engine id.
const (
	logScheduledChange = 1
	logForcedChange    = 2
	logOnDisabled      = 3
	logPause           = 4
	logResume          = 5
)

// ConsensusLog is a decoded GRANDPA consensus digest.
type ConsensusLog struct {
	Kind   uint8
	Change *ScheduledChange
	// Median is the forced change's best finalized block.
	Median uint32
	// Disabled is the authority index of an OnDisabled log.
	Disabled uint64
	// Delay of a Pause or Resume log.
	Delay uint32
}

// DecodeConsensusLog decodes one GRANDPA consensus log.
func DecodeConsensusLog(data []byte) (*ConsensusLog, error) {
	r := scaleutil.NewReader(data)
	tag, err := r.ReadByte()
	if err != nil {
		return nil, primitives.Malformedf("grandpa log: %v", err)
	}
	l := &ConsensusLog{Kind: tag}
	switch tag {
	case logScheduledChange:
		if l.Change, err = readScheduledChange(r); err != nil {
			return nil, err
		}
	case logForcedChange:
		if l.Median, err = r.ReadUint32(); err != nil {
			return nil, primitives.Malformedf("forced change median: %v", err)
		}
		if l.Change, err = readScheduledChange(r); err != nil {
			return nil, err
		}
	case logOnDisabled:
		if l.Disabled, err = r.ReadUint64(); err != nil {
			return nil, primitives.Malformedf("disabled authority: %v", err)
		}
	case logPause, logResume:
		if l.Delay, err = r.ReadUint32(); err != nil {
			return nil, primitives.Malformedf("pause delay: %v", err)
		}
	default:
		return nil, primitives.Malformedf("unknown grandpa log variant %d", tag)
	}
	if err := r.Done(); err != nil {
		return nil, primitives.Malformedf("grandpa log: %v", err)
	}
	return l, nil
}

func readScheduledChange(r *scaleutil.Reader) (*ScheduledChange, error) {
	next, err := readAuthorities(r)
	if err != nil {
		return nil, err
	}
	delay, err := r.ReadUint32()
	if err != nil {
		return nil, primitives.Malformedf("scheduled change delay: %v", err)
	}
	return &ScheduledChange{NextAuthorities: next, Delay: delay}, nil
}

// EncodeScheduledChange returns the consensus log announcing change.
func EncodeScheduledChange(change *ScheduledChange) ([]byte, error) {
	w := &scaleutil.Writer{}
	_ = w.WriteByte(logScheduledChange)
	w.Encode(*change)
	return w.Bytes()
}

// EncodeForcedChange returns the consensus log forcing change after median.
func EncodeForcedChange(median uint32, change *ScheduledChange) ([]byte, error) {
	w := &scaleutil.Writer{}
	_ = w.WriteByte(logForcedChange)
	w.Encode(median)
	w.Encode(*change)
	return w.Bytes()
}

func findLog(header *primitives.Header, kind uint8) (*ConsensusLog, error) {
	for _, data := range header.ConsensusLogs(primitives.GrandpaEngineID) {
		l, err := DecodeConsensusLog(data)
		if err != nil {
			return nil, err
		}
		if l.Kind == kind {
			return l, nil
		}
	}
	return nil, nil
}

// FindScheduledChange returns the first standard scheduled change signalled
// in the header digest, or nil.
func FindScheduledChange(header *primitives.Header) (*ScheduledChange, error) {
	l, err := findLog(header, logScheduledChange)
	if err != nil || l == nil {
		return nil, err
	}
	return l.Change, nil
}

// FindForcedChange returns the first forced change signalled in the header
// digest with its median block, or nil.
func FindForcedChange(header *primitives.Header) (uint32, *ScheduledChange, error) {
	l, err := findLog(header, logForcedChange)
	if err != nil || l == nil {
		return 0, nil, err
	}
	return l.Median, l.Change, nil
}
