package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelgarden_server_connected_clients",
		Help: "Currently connected websocket clients.",
	})

	joinedAvatars = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelgarden_server_joined_avatars_total",
		Help: "Avatars admitted to the world.",
	})

	receivedClientMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_server_received_messages_total",
		Help: "Messages received from clients, by type.",
	}, []string{"type"})

	receivedClientBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelgarden_server_received_bytes_total",
		Help: "Bytes received from clients.",
	})

	sentServerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_server_sent_messages_total",
		Help: "Messages queued to clients, by type.",
	}, []string{"type"})

	sentServerBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelgarden_server_sent_bytes_total",
		Help: "Bytes queued to clients.",
	})

	droppedServerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_server_dropped_messages_total",
		Help: "Messages dropped because a client send buffer was full.",
	}, []string{"type"})

	broadcastMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_server_broadcast_messages_total",
		Help: "Per-recipient broadcast deliveries, by type.",
	}, []string{"type"})
)
