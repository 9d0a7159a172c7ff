package kv

import (
	"bytes"
	"context"

	"github.com/ComposableFi/composable-sub011/encoding/bytesutil"
	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
	"go.opencensus.io/trace"
)

// ConsensusState returns the consensus state of clientID at height, or nil
// if there is none.
func (s *Store) ConsensusState(ctx context.Context, clientID string, height primitives.Height) (*primitives.ConsensusState, error) {
	_, span := trace.StartSpan(ctx, "LightClientDB.ConsensusState")
	defer span.End()
	var cs *primitives.ConsensusState
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(consensusStatesBucket).Get(consensusKey(clientID, height))
		if enc == nil {
			return nil
		}
		var err error
		cs, err = decodeConsensusState(enc)
		return err
	})
	return cs, err
}

// HasConsensusState checks if a consensus state is stored for clientID at height.
func (s *Store) HasConsensusState(ctx context.Context, clientID string, height primitives.Height) bool {
	_, span := trace.StartSpan(ctx, "LightClientDB.HasConsensusState")
	defer span.End()
	exists := false
	if err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(consensusStatesBucket).Get(consensusKey(clientID, height)) != nil
		return nil
	}); err != nil { // This view never returns an error, but we'll handle anyway for sanity.
		panic(err)
	}
	return exists
}

// ConsensusHeights returns the heights clientID has consensus states for,
// in ascending order.
func (s *Store) ConsensusHeights(ctx context.Context, clientID string) ([]primitives.Height, error) {
	_, span := trace.StartSpan(ctx, "LightClientDB.ConsensusHeights")
	defer span.End()
	prefix := clientPrefix(clientID)
	heights := make([]primitives.Height, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(consensusStatesBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			rest := k[len(prefix):]
			if len(rest) != 16 {
				continue
			}
			heights = append(heights, primitives.NewHeight(bytesToUint64(rest[:8]), bytesToUint64(rest[8:])))
		}
		return nil
	})
	return heights, err
}

// SaveUpdate stores a client state and its new consensus states in one
// transaction.
func (s *Store) SaveUpdate(ctx context.Context, clientID string, cs client.ClientState, updates []primitives.ConsensusUpdate) error {
	ctx, span := trace.StartSpan(ctx, "LightClientDB.SaveUpdate")
	defer span.End()
	if err := validateClientID(clientID); err != nil {
		return err
	}
	enc, err := encodeClientState(ctx, cs)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(clientStatesBucket).Put([]byte(clientID), enc); err != nil {
			return err
		}
		bkt := tx.Bucket(consensusStatesBucket)
		for i := range updates {
			u := &updates[i]
			if err := bkt.Put(consensusKey(clientID, u.Height), encodeConsensusState(&u.ConsensusState)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"clientID":        clientID,
		"consensusStates": len(updates),
	}).Debug("Saved client update")
	return nil
}

func clientPrefix(clientID string) []byte {
	prefix := make([]byte, 0, len(clientID)+1)
	prefix = append(prefix, clientID...)
	return append(prefix, keySeparator)
}

func consensusKey(clientID string, height primitives.Height) []byte {
	key := clientPrefix(clientID)
	key = append(key, uint64ToBytes(height.RevisionNumber)...)
	return append(key, uint64ToBytes(height.RevisionHeight)...)
}

func uint64ToBytes(i uint64) []byte {
	return bytesutil.Uint64ToBytesBigEndian(i)
}

func bytesToUint64(b []byte) uint64 {
	return bytesutil.BytesToUint64BigEndian(b)
}
