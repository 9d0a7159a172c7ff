// Package keeper is the host side of the light client. It persists client
// and consensus states, routes client messages through the client state
// machine and serves membership proofs against stored consensus states.
package keeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ComposableFi/composable-sub011/config/params"
	"github.com/ComposableFi/composable-sub011/db/iface"
	"github.com/ComposableFi/composable-sub011/light-client/client"
	"github.com/ComposableFi/composable-sub011/light-client/host"
	"github.com/ComposableFi/composable-sub011/light-client/primitives"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// Config for the keeper.
type Config struct {
	Database iface.Database
	// Host defaults to the native host functions.
	Host host.Functions
	// LightClient defaults to the active light client config.
	LightClient *params.LightClientConfig
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Keeper manages light clients stored in a database. Updates are serialized;
// reads may run concurrently.
type Keeper struct {
	db    iface.Database
	def   *client.ClientDef
	cfg   *params.LightClientConfig
	cache *lru.Cache
	clock func() time.Time
	lock  sync.Mutex
}

// New returns a keeper over cfg.Database.
func New(cfg *Config) (*Keeper, error) {
	if cfg.Database == nil {
		return nil, errNilDatabase
	}
	lc := cfg.LightClient
	if lc == nil {
		lc = params.LightClient()
	}
	h := cfg.Host
	if h == nil {
		h = host.New(lc)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	cache, err := lru.New(lc.ClientStateCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "could not create client state cache")
	}
	return &Keeper{
		db:    cfg.Database,
		def:   client.NewClientDef(h, lc),
		cfg:   lc,
		cache: cache,
		clock: clock,
	}, nil
}

// GenerateClientID returns a fresh id of the form "<client type>-<n>".
func (k *Keeper) GenerateClientID(ctx context.Context, clientType client.ClientType) (string, error) {
	seq, err := k.db.NextClientSequence(ctx)
	if err != nil {
		return "", errors.Wrap(err, "could not get client sequence")
	}
	return fmt.Sprintf("%s-%d", clientType, seq), nil
}

// Create registers a client with its initial consensus state, stored at the
// client's latest height.
func (k *Keeper) Create(ctx context.Context, clientID string, cs client.ClientState, cons *primitives.ConsensusState) error {
	ctx, span := trace.StartSpan(ctx, "Keeper.Create")
	defer span.End()
	if cs == nil || cons == nil {
		return primitives.Malformedf("client and consensus state are required")
	}
	if err := cs.Validate(); err != nil {
		return errors.Wrap(err, "invalid client state")
	}

	k.lock.Lock()
	defer k.lock.Unlock()
	existing, err := k.clientState(ctx, clientID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.Wrapf(ErrClientExists, "%s", clientID)
	}
	updates := []primitives.ConsensusUpdate{{Height: cs.LatestHeight(), ConsensusState: *cons}}
	if err := k.db.SaveUpdate(ctx, clientID, cs, updates); err != nil {
		return errors.Wrap(err, "could not save client")
	}
	k.cache.Add(clientID, cs)
	consensusStatesStored.Inc()
	latestParaHeight.WithLabelValues(clientID).Set(float64(cs.LatestHeight().RevisionHeight))
	log.WithFields(logrus.Fields{
		"clientID":     clientID,
		"clientType":   cs.ClientType(),
		"latestHeight": cs.LatestHeight(),
	}).Info("Created client")
	return nil
}

// CreateClient generates an id for cs and creates the client under it.
func (k *Keeper) CreateClient(ctx context.Context, cs client.ClientState, cons *primitives.ConsensusState) (string, error) {
	if cs == nil {
		return "", primitives.Malformedf("client state is required")
	}
	id, err := k.GenerateClientID(ctx, cs.ClientType())
	if err != nil {
		return "", err
	}
	if err := k.Create(ctx, id, cs, cons); err != nil {
		return "", err
	}
	return id, nil
}

// ClientState returns the state of clientID.
func (k *Keeper) ClientState(ctx context.Context, clientID string) (client.ClientState, error) {
	ctx, span := trace.StartSpan(ctx, "Keeper.ClientState")
	defer span.End()
	cs, err := k.clientState(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, errors.Wrapf(ErrClientNotFound, "%s", clientID)
	}
	return cs, nil
}

// ClientType returns the type of clientID.
func (k *Keeper) ClientType(ctx context.Context, clientID string) (client.ClientType, error) {
	cs, err := k.ClientState(ctx, clientID)
	if err != nil {
		return "", err
	}
	return cs.ClientType(), nil
}

// Status returns whether clientID is active or frozen.
func (k *Keeper) Status(ctx context.Context, clientID string) (client.Status, error) {
	cs, err := k.ClientState(ctx, clientID)
	if err != nil {
		return "", err
	}
	return k.def.Status(cs), nil
}

// ConsensusState returns the consensus state of clientID at height.
func (k *Keeper) ConsensusState(ctx context.Context, clientID string, height primitives.Height) (*primitives.ConsensusState, error) {
	ctx, span := trace.StartSpan(ctx, "Keeper.ConsensusState")
	defer span.End()
	cons, err := k.db.ConsensusState(ctx, clientID, height)
	if err != nil {
		return nil, err
	}
	if cons == nil {
		return nil, errors.Wrapf(ErrConsensusStateNotFound, "%s at %s", clientID, height)
	}
	return cons, nil
}

// ConsensusHeights returns the heights clientID has consensus states for.
func (k *Keeper) ConsensusHeights(ctx context.Context, clientID string) ([]primitives.Height, error) {
	return k.db.ConsensusHeights(ctx, clientID)
}

// ClientIDs returns the ids of all clients.
func (k *Keeper) ClientIDs(ctx context.Context) ([]string, error) {
	return k.db.ClientIDs(ctx)
}

func (k *Keeper) clientState(ctx context.Context, clientID string) (client.ClientState, error) {
	if v, ok := k.cache.Get(clientID); ok {
		clientStateCacheHit.Inc()
		return v.(client.ClientState), nil
	}
	clientStateCacheMiss.Inc()
	cs, err := k.db.ClientState(ctx, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read client state of %s", clientID)
	}
	if cs != nil {
		k.cache.Add(clientID, cs)
	}
	return cs, nil
}

// reader exposes the consensus states of clientID to the client state machine.
func (k *Keeper) reader(ctx context.Context, clientID string) client.ConsensusReader {
	return client.ConsensusReaderFunc(func(height primitives.Height) (*primitives.ConsensusState, error) {
		return k.db.ConsensusState(ctx, clientID, height)
	})
}
