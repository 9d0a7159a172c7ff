package kv

import (
	"bytes"
	"context"

	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// ErrInvalidClientID is returned for client ids that cannot be used as keys.
var ErrInvalidClientID = errors.New("invalid client id")

// ClientState returns the stored state of clientID, or nil if there is none.
func (s *Store) ClientState(ctx context.Context, clientID string) (client.ClientState, error) {
	ctx, span := trace.StartSpan(ctx, "LightClientDB.ClientState")
	defer span.End()
	var cs client.ClientState
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(clientStatesBucket).Get([]byte(clientID))
		if enc == nil {
			return nil
		}
		var err error
		cs, err = decodeClientState(ctx, enc)
		return err
	})
	return cs, err
}

// SaveClientState stores the state of clientID.
func (s *Store) SaveClientState(ctx context.Context, clientID string, cs client.ClientState) error {
	ctx, span := trace.StartSpan(ctx, "LightClientDB.SaveClientState")
	defer span.End()
	if err := validateClientID(clientID); err != nil {
		return err
	}
	enc, err := encodeClientState(ctx, cs)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientStatesBucket).Put([]byte(clientID), enc)
	})
}

// ClientIDs returns the ids of all stored clients in key order.
func (s *Store) ClientIDs(ctx context.Context) ([]string, error) {
	_, span := trace.StartSpan(ctx, "LightClientDB.ClientIDs")
	defer span.End()
	ids := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(clientStatesBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// NextClientSequence returns a fresh client sequence number.
func (s *Store) NextClientSequence(ctx context.Context) (uint64, error) {
	_, span := trace.StartSpan(ctx, "LightClientDB.NextClientSequence")
	defer span.End()
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(clientMetadataBucket)
		if enc := bkt.Get(clientSequenceKey); enc != nil {
			seq = bytesToUint64(enc)
		}
		return bkt.Put(clientSequenceKey, uint64ToBytes(seq+1))
	})
	return seq, err
}

func validateClientID(clientID string) error {
	if clientID == "" {
		return errors.Wrap(ErrInvalidClientID, "empty")
	}
	if bytes.IndexByte([]byte(clientID), keySeparator) >= 0 {
		return errors.Wrapf(ErrInvalidClientID, "%q contains a zero byte", clientID)
	}
	return nil
}
