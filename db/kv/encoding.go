package kv

import (
	"context"

	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

func encodeClientState(ctx context.Context, cs client.ClientState) ([]byte, error) {
	_, span := trace.StartSpan(ctx, "LightClientDB.encodeClientState")
	defer span.End()
	if cs == nil {
		return nil, errors.New("cannot encode nil client state")
	}
	enc, err := client.EncodeClientState(cs)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, enc), nil
}

func decodeClientState(ctx context.Context, data []byte) (client.ClientState, error) {
	_, span := trace.StartSpan(ctx, "LightClientDB.decodeClientState")
	defer span.End()
	enc, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "could not snappy decode client state")
	}
	return client.DecodeClientState(enc)
}

func encodeConsensusState(cs *primitives.ConsensusState) []byte {
	return snappy.Encode(nil, client.EncodeConsensusState(cs))
}

func decodeConsensusState(data []byte) (*primitives.ConsensusState, error) {
	enc, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "could not snappy decode consensus state")
	}
	return client.DecodeConsensusState(enc)
}
