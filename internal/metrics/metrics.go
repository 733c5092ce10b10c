package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Room lifecycle metrics
var (
	// RoomsActive tracks rooms currently instantiated in memory.
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wirechat_rooms_active",
			Help: "Number of room instances currently held in memory",
		},
	)

	// RoomInstantiationsTotal counts room constructions, including re-creation after hibernation.
	RoomInstantiationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_room_instantiations_total",
			Help: "Total room instantiations",
		},
	)

	// RoomHibernationsTotal counts idle rooms evicted from memory.
	RoomHibernationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_room_hibernations_total",
			Help: "Total room evictions after idle timeout",
		},
	)

	// ConnectionsActive tracks sockets associated with any room.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wirechat_connections_active",
			Help: "Number of WebSocket connections associated with rooms",
		},
	)
)

// Command and broadcast metrics
var (
	// CommandsTotal counts dispatched commands by kind.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_commands_total",
			Help: "Total dispatched client commands by kind",
		},
		[]string{"kind"},
	)

	// StorageErrorsTotal counts failed store operations by operation.
	StorageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_storage_errors_total",
			Help: "Total message store failures by operation",
		},
		[]string{"op"},
	)

	// BroadcastDeliveriesTotal counts payload deliveries by result (ok/failed).
	BroadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirechat_broadcast_deliveries_total",
			Help: "Total per-connection payload deliveries by result",
		},
		[]string{"result"},
	)

	// InboundDroppedTotal counts inbound frames dropped by the rate limiter.
	InboundDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wirechat_inbound_dropped_total",
			Help: "Total inbound frames dropped by per-connection rate limiting",
		},
	)
)
