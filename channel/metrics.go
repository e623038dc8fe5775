package channel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_channel_sent_messages_total",
		Help: "Messages queued for transmission, by type.",
	}, []string{"type"})

	droppedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_channel_dropped_messages_total",
		Help: "Outbound messages dropped on backpressure, by type.",
	}, []string{"type"})

	receivedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxelgarden_channel_received_messages_total",
		Help: "Messages received from the server, by type.",
	}, []string{"type"})

	droppedInbound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelgarden_channel_dropped_inbound_total",
		Help: "Inbound messages dropped because the consumer queue was full.",
	})

	sentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelgarden_channel_sent_bytes_total",
		Help: "Bytes queued for transmission.",
	})

	receivedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelgarden_channel_received_bytes_total",
		Help: "Bytes received from the server.",
	})
)
