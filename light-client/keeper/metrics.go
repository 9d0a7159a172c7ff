package keeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightclient_updates_accepted_total",
		Help: "The number of client updates accepted, by client type.",
	}, []string{"client_type"})
	updatesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightclient_updates_rejected_total",
		Help: "The number of client updates rejected, by client type and error kind.",
	}, []string{"client_type", "kind"})
	misbehaviourDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lightclient_misbehaviour_total",
		Help: "The number of misbehaviour reports that froze a client.",
	}, []string{"client_type"})
	frozenClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lightclient_frozen_clients",
		Help: "The number of clients frozen since the process started.",
	})
	consensusStatesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_consensus_states_stored_total",
		Help: "The number of consensus states persisted.",
	})
	latestParaHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lightclient_latest_para_height",
		Help: "The latest parachain height of each client.",
	}, []string{"client_id"})
	clientStateCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_client_state_cache_hit",
		Help: "The total number of cache hits on the client state cache.",
	})
	clientStateCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lightclient_client_state_cache_miss",
		Help: "The total number of cache misses on the client state cache.",
	})
)
