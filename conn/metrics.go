package conn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bytesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mctools",
		Subsystem: "conn",
		Name:      "sent_bytes_total",
		Help:      "Bytes written to server connections.",
	}, []string{"network"})
	bytesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mctools",
		Subsystem: "conn",
		Name:      "received_bytes_total",
		Help:      "Bytes read from server connections.",
	}, []string{"network"})
	dialFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mctools",
		Subsystem: "conn",
		Name:      "dial_failures_total",
		Help:      "Connections that could not be opened.",
	}, []string{"network"})
)
